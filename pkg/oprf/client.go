package oprf

import (
	"encoding/hex"
	"fmt"
	"regexp"

	circloprf "github.com/cloudflare/circl/oprf"
)

// Client blinds inputs and finalizes server evaluations. A Client is
// stateless across round trips; per-round state lives in the BlindState
// returned by Blind.
type Client struct {
	inner circloprf.Client
}

// NewClient creates an OPRF client for the fixed suite.
func NewClient() Client {
	return Client{inner: circloprf.NewClient(suite)}
}

// BlindState carries the blinding randomness between Blind and Finalize.
// It is consumed exactly once and must never be persisted or serialized
// off-process.
type BlindState struct {
	fin      *circloprf.FinalizeData
	consumed bool
}

// Blind blinds input and returns the use-once blind state together with
// the serialized evaluation request for the server.
func (c Client) Blind(input []byte) (*BlindState, []byte, error) {
	fin, req, err := c.inner.Blind([][]byte{input})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	wire, err := req.Elements[0].MarshalBinaryCompress()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return &BlindState{fin: fin}, wire, nil
}

// hexLike matches strings the compatibility shim treats as hex.
var hexLike = regexp.MustCompile(`^[0-9a-fA-F]+$`)

// BlindString is a compatibility shim for callers holding string input:
// even-length strings of hex digits are decoded to bytes first, anything
// else is absorbed as UTF-8. Short alphanumeric passphrases are ambiguous
// under this rule; callers who need determinism use Blind with raw bytes.
func (c Client) BlindString(input string) (*BlindState, []byte, error) {
	if hexLike.MatchString(input) && len(input)%2 == 0 {
		raw, err := hex.DecodeString(input)
		if err == nil {
			return c.Blind(raw)
		}
	}
	return c.Blind([]byte(input))
}

// Finalize consumes the blind state with the server's serialized
// response and returns the PRF output bytes.
func (c Client) Finalize(state *BlindState, response []byte) ([]byte, error) {
	if state == nil || state.consumed {
		return nil, ErrStateConsumed
	}
	state.consumed = true

	elem, err := decodeElement(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	eval := &circloprf.Evaluation{Elements: []circloprf.Evaluated{elem}}
	outputs, err := c.inner.Finalize(state.fin, eval)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return outputs[0], nil
}
