package storage

import (
	"testing"

	"github.com/kriwitj/nso-forms/internal/config"
)

func TestNewObjectStoreEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		cfg        config.StorageConfig
		wantScheme string
		wantHost   string
	}{
		{"bare host uses flag", config.StorageConfig{Endpoint: "minio:9000"}, "http", "minio:9000"},
		{"bare host with ssl", config.StorageConfig{Endpoint: "minio:9000", UseSSL: true}, "https", "minio:9000"},
		{"url scheme wins", config.StorageConfig{Endpoint: "https://files.example.com"}, "https", "files.example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewObjectStore(tt.cfg)
			if err != nil {
				t.Fatalf("NewObjectStore: %v", err)
			}
			u := store.client.EndpointURL()
			if u.Scheme != tt.wantScheme || u.Host != tt.wantHost {
				t.Errorf("endpoint = %s://%s, want %s://%s", u.Scheme, u.Host, tt.wantScheme, tt.wantHost)
			}
		})
	}
}
