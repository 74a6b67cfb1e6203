package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

var (
	// ErrSessionNotFound is returned when a session token is not found.
	ErrSessionNotFound = errors.New("auth: session token not found")

	// ErrSessionExpired is returned when a session token has expired.
	ErrSessionExpired = errors.New("auth: session token expired")
)

const (
	// DefaultSessionTTL is the default session token lifetime.
	DefaultSessionTTL = 30 * time.Minute

	// tokenIDBytes is the entropy of a token ID.
	tokenIDBytes = 32

	// sessionCleanupInterval is how often expired sessions are swept.
	sessionCleanupInterval = 1 * time.Minute
)

// Session is an authenticated post-login session.
type Session struct {
	Token     string
	Username  string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsExpired reports whether the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// SessionManager issues and validates bearer tokens for sessions that
// completed the mutual SRP proof. Token signatures bind the token ID,
// the username, and a digest of the SRP session key, so a token cannot
// be transplanted onto another session's key.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	hmacKey  []byte
	ttl      time.Duration
	stopCh   chan struct{}
}

// NewSessionManager derives the token-signing key from the service
// master secret via HKDF-SHA256 and starts background expiry.
func NewSessionManager(masterSecret []byte, ttl time.Duration) (*SessionManager, error) {
	hmacKey := make([]byte, 32)
	kdf := hkdf.New(sha256.New, masterSecret, nil, []byte("osrp session token v1"))
	if _, err := io.ReadFull(kdf, hmacKey); err != nil {
		return nil, fmt.Errorf("auth: deriving token key: %w", err)
	}

	sm := &SessionManager{
		sessions: make(map[string]*Session),
		hmacKey:  hmacKey,
		ttl:      ttl,
		stopCh:   make(chan struct{}),
	}

	go sm.cleanupLoop()

	return sm, nil
}

// CreateSession issues a token for username after a verified login.
// sessionKeyHex is the mutual SRP session key K; only its digest enters
// the token signature, the key itself is not retained.
func (sm *SessionManager) CreateSession(username, sessionKeyHex string) (string, error) {
	keyBytes, err := hex.DecodeString(sessionKeyHex)
	if err != nil {
		return "", fmt.Errorf("auth: parsing session key: %w", err)
	}
	keyDigest := sha256.Sum256(keyBytes)

	idBytes := make([]byte, tokenIDBytes)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("auth: generating token ID: %w", err)
	}
	tokenID := base64.URLEncoding.EncodeToString(idBytes)

	signature := sm.sign(tokenID, username, keyDigest[:])
	token := tokenID + "." + signature

	now := time.Now()
	session := &Session{
		Token:     token,
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}

	sm.mu.Lock()
	sm.sessions[token] = session
	sm.mu.Unlock()

	return token, nil
}

// ValidateSession validates a bearer token and returns its session.
func (sm *SessionManager) ValidateSession(token string) (*Session, error) {
	sm.mu.RLock()
	session, ok := sm.sessions[token]
	sm.mu.RUnlock()

	if !ok {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// InvalidateSession removes a session, for explicit logout.
func (sm *SessionManager) InvalidateSession(token string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, ok := sm.sessions[token]; !ok {
		return ErrSessionNotFound
	}
	delete(sm.sessions, token)
	return nil
}

// SessionCount returns the number of live sessions.
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Stop stops the background cleanup goroutine.
func (sm *SessionManager) Stop() {
	close(sm.stopCh)
}

// sign computes HMAC-SHA256(token_id || username || key_digest).
func (sm *SessionManager) sign(tokenID, username string, keyDigest []byte) string {
	h := hmac.New(sha256.New, sm.hmacKey)
	h.Write([]byte(tokenID))
	h.Write([]byte(username))
	h.Write(keyDigest)
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// VerifyTokenShape checks that a token is structurally id.signature.
// Full verification happens against the stored session.
func VerifyTokenShape(token string) bool {
	parts := strings.SplitN(token, ".", 2)
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}

// cleanupLoop periodically removes expired sessions.
func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.performCleanup()
		case <-sm.stopCh:
			return
		}
	}
}

// performCleanup removes all expired sessions.
func (sm *SessionManager) performCleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	now := time.Now()
	for token, session := range sm.sessions {
		if now.After(session.ExpiresAt) {
			delete(sm.sessions, token)
		}
	}
}

// GenerateMasterSecret draws the service master secret used to derive
// the token-signing key. Called once at service startup.
func GenerateMasterSecret() ([]byte, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("auth: generating master secret: %w", err)
	}
	return secret, nil
}
