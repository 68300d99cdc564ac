package security

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestPasswordRoundTrip(t *testing.T) {
	params := Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
	hash, err := HashPasswordWithParams("Admin@1234", params)
	if err != nil {
		t.Fatalf("HashPasswordWithParams: %v", err)
	}

	ok, err := VerifyPassword("Admin@1234", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(correct) = %v, %v", ok, err)
	}

	ok, err = VerifyPassword("admin@1234", hash)
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, encoded := range []string{"", "plain", "$bcrypt$v=19$t=1,m=1,p=1$a$b", "$argon2id$v=19$t=1,m=1,p=1$!!$b"} {
		if ok, err := VerifyPassword("x", []byte(encoded)); err == nil || ok {
			t.Errorf("VerifyPassword(%q) = %v, %v; want error", encoded, ok, err)
		}
	}
}

func TestGenerateSessionToken(t *testing.T) {
	token, hash, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if len(token) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(token))
	}
	if !bytes.Equal(hash, HashSessionToken(token)) {
		t.Error("returned hash must match HashSessionToken")
	}

	other, _, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken: %v", err)
	}
	if other == token {
		t.Error("tokens must be unique")
	}
}

func TestDownloadTicket(t *testing.T) {
	secret := []byte("download-secret")

	ticket, err := IssueDownloadTicket(secret, "exp1", "form1", "user1", time.Minute)
	if err != nil {
		t.Fatalf("IssueDownloadTicket: %v", err)
	}

	claims, err := ParseDownloadTicket(ticket, secret)
	if err != nil {
		t.Fatalf("ParseDownloadTicket: %v", err)
	}
	if claims.ExportID != "exp1" || claims.FormID != "form1" || claims.Subject != "user1" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := ParseDownloadTicket(ticket, []byte("other")); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("wrong secret err = %v", err)
	}

	expired, err := IssueDownloadTicket(secret, "exp1", "form1", "user1", -time.Minute)
	if err != nil {
		t.Fatalf("IssueDownloadTicket: %v", err)
	}
	if _, err := ParseDownloadTicket(expired, secret); !errors.Is(err, ErrInvalidTicket) {
		t.Errorf("expired err = %v", err)
	}
}
