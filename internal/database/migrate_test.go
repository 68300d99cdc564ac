package database

import "testing"

func TestMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@db:5432/forms?sslmode=disable", "pgx5://u:p@db:5432/forms?sslmode=disable"},
		{"postgresql://u@db/forms", "pgx5://u@db/forms"},
		{"pgx5://u@db/forms", "pgx5://u@db/forms"},
	}
	for _, tt := range tests {
		if got := migrateURL(tt.in); got != tt.want {
			t.Errorf("migrateURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries)%2 != 0 || len(entries) == 0 {
		t.Fatalf("expected paired up/down migrations, got %d files", len(entries))
	}
}
