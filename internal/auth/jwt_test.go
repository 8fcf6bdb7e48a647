// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/carterperez-dev/bistro-backend/internal/config"
	"github.com/carterperez-dev/bistro-backend/internal/core"
)

func testJWTConfig(t *testing.T) config.JWTConfig {
	t.Helper()

	dir := t.TempDir()
	cfg := config.JWTConfig{
		PrivateKeyPath:    filepath.Join(dir, "private.pem"),
		PublicKeyPath:     filepath.Join(dir, "public.pem"),
		AccessTokenExpire: time.Hour,
		Issuer:            "bistro-test",
		Audience:          "bistro-test-api",
	}

	if err := GenerateKeyPair(cfg.PrivateKeyPath, cfg.PublicKeyPath); err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	return cfg
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()

	m, err := NewJWTManager(testJWTConfig(t))
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	m := newTestManager(t)

	issued, err := m.Issue("  Diner@Example.com ")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	identity, err := m.VerifyAccessToken(context.Background(), issued.Token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if identity.Email != "diner@example.com" {
		t.Errorf("Email = %q, want diner@example.com", identity.Email)
	}
	if identity.TokenID == "" || identity.TokenID != issued.ID {
		t.Errorf("TokenID = %q, want issued id %q", identity.TokenID, issued.ID)
	}
	if identity.ExpiresAt.Sub(issued.ExpiresAt).Abs() > time.Second {
		t.Errorf("ExpiresAt = %v, want %v", identity.ExpiresAt, issued.ExpiresAt)
	}
}

func TestIssueRejectsEmptyEmail(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Issue("   ")
	if !errors.Is(err, core.ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	m := newTestManager(t)

	issuedAt := time.Now()
	m.now = func() time.Time { return issuedAt }

	issued, err := m.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	m.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }

	_, err = m.VerifyAccessToken(context.Background(), issued.Token)
	if !errors.Is(err, core.ErrTokenExpired) {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	m := newTestManager(t)
	other := newTestManager(t)

	issued, err := m.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	foreign, err := other.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	parts := strings.Split(issued.Token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not-a-jwt"},
		{"empty", ""},
		{"tampered signature", tampered},
		{"signed by another key", foreign.Token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.VerifyAccessToken(context.Background(), tt.token)
			if !errors.Is(err, core.ErrTokenInvalid) {
				t.Fatalf("err = %v, want ErrTokenInvalid", err)
			}
		})
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	cfg := testJWTConfig(t)

	issuer, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	cfg.Audience = "someone-else"
	verifier, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	issued, err := issuer.Issue("a@x.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	_, err = verifier.VerifyAccessToken(context.Background(), issued.Token)
	if !errors.Is(err, core.ErrTokenInvalid) {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

func TestKeyIDStableAcrossLoads(t *testing.T) {
	cfg := testJWTConfig(t)

	a, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	b, err := NewJWTManager(cfg)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}

	if a.GetKeyID() == "" || a.GetKeyID() != b.GetKeyID() {
		t.Fatalf("key ids %q and %q should match and be non-empty", a.GetKeyID(), b.GetKeyID())
	}
}

func TestJWKSHandler(t *testing.T) {
	m := newTestManager(t)

	rec := httptest.NewRecorder()
	m.GetJWKSHandler()(rec, httptest.NewRequest(http.MethodGet, "/.well-known/jwks.json", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if len(body.Keys) != 1 {
		t.Fatalf("len(keys) = %d, want 1", len(body.Keys))
	}
	if body.Keys[0]["kid"] != m.GetKeyID() {
		t.Errorf("kid = %v, want %s", body.Keys[0]["kid"], m.GetKeyID())
	}
	if _, ok := body.Keys[0]["d"]; ok {
		t.Error("JWKS leaks the private component")
	}
}

func TestIssueTokenHandler(t *testing.T) {
	h := NewHandler(newTestManager(t))

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid", `{"email":"a@x.com"}`, http.StatusOK},
		{"invalid email", `{"email":"nope"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(tt.body))
			h.IssueToken(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}

			var resp TokenResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Token == "" || resp.TokenType != "Bearer" || resp.ExpiresIn != 3600 {
				t.Errorf("unexpected response %+v", resp)
			}
		})
	}
}

func TestIssueTokenLogsTokenIDNotEmail(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })

	h := NewHandler(newTestManager(t))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jwt", strings.NewReader(`{"email":"diner@x.com"}`))
	h.IssueToken(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	out := buf.String()
	if strings.Contains(out, "diner@x.com") {
		t.Errorf("log contains the caller email: %s", out)
	}
	if !strings.Contains(out, "token_id=") {
		t.Errorf("log missing token_id: %s", out)
	}
}
