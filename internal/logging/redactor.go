package logging

import (
	"strings"
)

const redactedValue = "[REDACTED]"

// Redactor handles secret redaction in log fields.
type Redactor struct {
	sensitiveKeys map[string]bool
}

// NewRedactor creates a new Redactor with default sensitive keys. The
// defaults cover every secret-bearing value the protocol handles:
// credentials, ephemeral secrets, verifiers, proofs, session keys, and
// OPRF material.
func NewRedactor() *Redactor {
	return &Redactor{
		sensitiveKeys: map[string]bool{
			// Credentials & session
			"password":      true,
			"token":         true,
			"secret":        true,
			"key":           true,
			"session":       true,
			"session_key":   true,
			"session_token": true,
			"authorization": true,

			// SRP protocol values
			"proof":        true,
			"client_proof": true,
			"server_proof": true,
			"verifier":     true,
			"salt":         true, // Salt can be logged in some contexts, but redact by default
			"a":            true, // ephemeral client secret
			"b":            true, // ephemeral server secret
			"x":            true, // verifier hash exponent
			"private_key":  true,

			// OPRF material
			"oprf_key":         true,
			"oprf_request":     true,
			"oprf_response":    true,
			"oprf_output":      true,
			"blind":            true,
			"private_verifier": true,

			// Service secrets
			"master_secret": true,
			"api_key":       true,
			"secret_key":    true,
			"tls_key":       true,
		},
	}
}

// AddSensitiveKey adds a custom key to the redaction list.
func (r *Redactor) AddSensitiveKey(key string) {
	r.sensitiveKeys[strings.ToLower(key)] = true
}

// RemoveSensitiveKey removes a key from the redaction list.
func (r *Redactor) RemoveSensitiveKey(key string) {
	delete(r.sensitiveKeys, strings.ToLower(key))
}

// RedactFields redacts sensitive values from a map of fields.
func (r *Redactor) RedactFields(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}

	redacted := make(map[string]any, len(fields))

	for k, v := range fields {
		if r.isSensitiveKey(k) {
			redacted[k] = redactedValue
		} else if nested, ok := v.(map[string]any); ok {
			// Recursively redact nested maps
			redacted[k] = r.RedactFields(nested)
		} else {
			redacted[k] = v
		}
	}

	return redacted
}

// RedactString redacts sensitive values from a string by checking for key patterns.
func (r *Redactor) RedactString(s string) string {
	for key := range r.sensitiveKeys {
		// Look for patterns like "key=value" or "key: value"
		patterns := []string{
			key + "=",
			key + ": ",
			"\"" + key + "\":",
		}

		for _, pattern := range patterns {
			if strings.Contains(strings.ToLower(s), pattern) {
				// Found a potential secret - redact the whole line for safety
				return redactedValue
			}
		}
	}

	return s
}

// isSensitiveKey checks if a field key is marked as sensitive.
func (r *Redactor) isSensitiveKey(key string) bool {
	// Only check exact match (case-insensitive)
	// Substring matching was too aggressive and caught legitimate fields
	return r.sensitiveKeys[strings.ToLower(key)]
}
