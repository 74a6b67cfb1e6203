package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/osrplabs/osrp/internal/auth"
)

func newSessionManager(t *testing.T, ttl time.Duration) *auth.SessionManager {
	t.Helper()
	secret, err := auth.GenerateMasterSecret()
	if err != nil {
		t.Fatal(err)
	}
	sm, err := auth.NewSessionManager(secret, ttl)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(sm.Stop)
	return sm
}

func TestSessionLifecycle(t *testing.T) {
	sm := newSessionManager(t, 30*time.Minute)

	sessionKey := strings.Repeat("ab", 32)
	token, err := sm.CreateSession("testuser", sessionKey)
	if err != nil {
		t.Fatal(err)
	}
	if !auth.VerifyTokenShape(token) {
		t.Errorf("token %q has unexpected shape", token)
	}

	session, err := sm.ValidateSession(token)
	if err != nil {
		t.Fatal(err)
	}
	if session.Username != "testuser" {
		t.Errorf("unexpected username %q", session.Username)
	}

	if err := sm.InvalidateSession(token); err != nil {
		t.Fatal(err)
	}
	if _, err := sm.ValidateSession(token); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after invalidation, got %v", err)
	}
}

func TestSessionRejectsBadKeyHex(t *testing.T) {
	sm := newSessionManager(t, 30*time.Minute)
	if _, err := sm.CreateSession("testuser", "not-hex"); err == nil {
		t.Error("expected error for malformed session key")
	}
}

func TestSessionUnknownToken(t *testing.T) {
	sm := newSessionManager(t, 30*time.Minute)
	if _, err := sm.ValidateSession("bogus.token"); !errors.Is(err, auth.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	sm := newSessionManager(t, 1*time.Millisecond)

	token, err := sm.CreateSession("testuser", strings.Repeat("cd", 32))
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := sm.ValidateSession(token); !errors.Is(err, auth.ErrSessionExpired) {
		t.Errorf("expected ErrSessionExpired, got %v", err)
	}
}

func TestSessionTokensDistinct(t *testing.T) {
	sm := newSessionManager(t, 30*time.Minute)

	key := strings.Repeat("ef", 32)
	t1, err := sm.CreateSession("testuser", key)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := sm.CreateSession("testuser", key)
	if err != nil {
		t.Fatal(err)
	}
	if t1 == t2 {
		t.Error("expected distinct tokens per session")
	}
	if sm.SessionCount() != 2 {
		t.Errorf("expected 2 sessions, got %d", sm.SessionCount())
	}
}
