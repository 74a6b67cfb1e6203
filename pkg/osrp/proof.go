package osrp

import (
	"crypto/subtle"
	"strings"
)

// EqualProofs compares two hex-encoded proof values in constant time.
// Case is normalized first so that wire encodings in either case verify.
// Only the boolean outcome may be observable to the peer.
func EqualProofs(a, b string) bool {
	ab := []byte(strings.ToLower(a))
	bb := []byte(strings.ToLower(b))
	if len(ab) != len(bb) {
		return false
	}
	return subtle.ConstantTimeCompare(ab, bb) == 1
}
