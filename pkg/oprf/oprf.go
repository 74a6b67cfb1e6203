// Package oprf wraps the CIRCL oblivious pseudo-random function in the
// client and server roles the oblivious SRP protocol needs. The suite is
// fixed to P256-SHA256; requests and responses travel as the compressed
// encoding of a single group element.
package oprf

import (
	"errors"

	"github.com/cloudflare/circl/group"
	circloprf "github.com/cloudflare/circl/oprf"
)

var (
	// ErrBadRequest is returned when a serialized evaluation request does
	// not decode to a valid group element.
	ErrBadRequest = errors.New("oprf: malformed evaluation request")

	// ErrBadResponse is returned when a serialized evaluation response
	// does not decode or fails finalization.
	ErrBadResponse = errors.New("oprf: malformed evaluation response")

	// ErrCrypto is returned when the underlying suite rejects an
	// operation on otherwise well-formed input.
	ErrCrypto = errors.New("oprf: evaluation failed")

	// ErrStateConsumed is returned when a blind state is finalized more
	// than once. Blind state is a use-once resource; reuse is a
	// programming error.
	ErrStateConsumed = errors.New("oprf: blind state already consumed")
)

// suite is the fixed ciphersuite. Rotating suites would invalidate every
// stored verifier, so there is deliberately no way to configure it.
var suite = circloprf.SuiteP256

// elementGroup is the prime-order group underlying the suite.
var elementGroup = group.P256

// KeySize is the byte length of a serialized server private key.
const KeySize = 32

// decodeElement parses the compressed wire encoding of a group element.
func decodeElement(data []byte) (group.Element, error) {
	e := elementGroup.NewElement()
	if err := e.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return e, nil
}
