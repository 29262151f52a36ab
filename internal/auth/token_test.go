package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewTokenService("test-secret")

	token, err := svc.Generate(7, "mosh", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "mosh" || !claims.IsAdmin {
		t.Fatalf("wrong claims: %+v", claims)
	}
}

func TestValidate_WrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a").Generate(1, "u", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = NewTokenService("secret-b").Validate(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestValidate_Garbage(t *testing.T) {
	svc := NewTokenService("test-secret")
	if _, err := svc.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := NewTokenService("test-secret")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Username != "admin" {
			t.Errorf("claims missing from context")
		}
		w.WriteHeader(http.StatusNoContent)
	})
	guarded := svc.RequireAdmin(next)

	adminToken, _ := svc.Generate(1, "admin", true)
	userToken, _ := svc.Generate(2, "viewer", false)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"malformed", "Token abc", http.StatusUnauthorized},
		{"invalid token", "Bearer junk", http.StatusUnauthorized},
		{"non-admin", "Bearer " + userToken, http.StatusForbidden},
		{"admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if c.header != "" {
			req.Header.Set("Authorization", c.header)
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != c.want {
			t.Errorf("%s: expected %d, got %d", c.name, c.want, rec.Code)
		}
	}
}
