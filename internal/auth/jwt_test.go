package auth

import (
	"errors"
	"testing"
	"time"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService("0123456789abcdef0123", time.Hour)
	token, exp, err := svc.GenerateToken("user-1")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %v", exp)
	}
	uid, err := svc.ExtractUID(token)
	if err != nil || uid != "user-1" {
		t.Fatalf("uid=%q err=%v", uid, err)
	}
}

func TestJWTRejects(t *testing.T) {
	svc := NewJWTService("0123456789abcdef0123", time.Hour)
	token, _, _ := svc.GenerateToken("user-1")

	other := NewJWTService("another-secret-value!", time.Hour)
	expired := NewJWTService("0123456789abcdef0123", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, _ := expired.GenerateToken("user-1")

	tests := []struct {
		name  string
		svc   *JWTService
		token string
	}{
		{"wrong secret", other, token},
		{"expired", svc, old},
		{"garbage", svc, "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.svc.ExtractUID(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err=%v", err)
			}
		})
	}
}
