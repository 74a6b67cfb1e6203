package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := New(LevelWarn, FormatJSON)
	logger.SetOutput(&out, &errOut)

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	if strings.Contains(out.String(), "debug message") || strings.Contains(out.String(), "info message") {
		t.Error("messages below the configured level were emitted")
	}
	if !strings.Contains(out.String(), "warn message") {
		t.Error("warn message missing from stdout")
	}
	if !strings.Contains(errOut.String(), "error message") {
		t.Error("error message missing from stderr")
	}
}

func TestJSONFormat(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := New(LevelInfo, FormatJSON)
	logger.SetOutput(&out, &errOut)

	logger.Info("login verified", map[string]any{"username": "testuser"})

	var entry map[string]any
	if err := json.Unmarshal(out.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["message"] != "login verified" {
		t.Errorf("unexpected message %v", entry["message"])
	}
}

func TestSecretsRedacted(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := New(LevelInfo, FormatJSON)
	logger.SetOutput(&out, &errOut)

	logger.Info("session derived", map[string]any{
		"username":    "testuser",
		"session_key": "deadbeef",
		"verifier":    "cafef00d",
		"proof":       "0123abcd",
	})

	s := out.String()
	for _, secret := range []string{"deadbeef", "cafef00d", "0123abcd"} {
		if strings.Contains(s, secret) {
			t.Errorf("secret value %q leaked into log output", secret)
		}
	}
	if !strings.Contains(s, "testuser") {
		t.Error("non-secret field was dropped")
	}
	if !strings.Contains(s, "[REDACTED]") {
		t.Error("expected redaction marker in output")
	}
}

func TestRedactorNestedFields(t *testing.T) {
	r := NewRedactor()
	fields := r.RedactFields(map[string]any{
		"outer": map[string]any{
			"oprf_key": "secret-bytes",
			"status":   "ok",
		},
	})

	nested, ok := fields["outer"].(map[string]any)
	if !ok {
		t.Fatal("nested map lost during redaction")
	}
	if nested["oprf_key"] != "[REDACTED]" {
		t.Error("nested secret not redacted")
	}
	if nested["status"] != "ok" {
		t.Error("nested non-secret altered")
	}
}
