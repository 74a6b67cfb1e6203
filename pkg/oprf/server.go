package oprf

import (
	"crypto/rand"
	"fmt"

	circloprf "github.com/cloudflare/circl/oprf"
)

// Server evaluates blinded requests under a long-lived private key.
// Rotating the key invalidates every verifier derived with it. A Server
// holds no mutable state and is safe for concurrent use.
type Server struct {
	inner circloprf.Server
	key   *circloprf.PrivateKey
}

// NewServer creates a server with a freshly generated private key.
func NewServer() (*Server, error) {
	key, err := circloprf.GenerateKey(suite, rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("oprf: generating private key: %w", err)
	}
	return &Server{inner: circloprf.NewServer(suite, key), key: key}, nil
}

// NewServerWithKey creates a server from an externally managed private
// key, as serialized by PrivateKeyBytes.
func NewServerWithKey(keyBytes []byte) (*Server, error) {
	key := new(circloprf.PrivateKey)
	if err := key.UnmarshalBinary(suite, keyBytes); err != nil {
		return nil, fmt.Errorf("oprf: parsing private key: %w", err)
	}
	return &Server{inner: circloprf.NewServer(suite, key), key: key}, nil
}

// PrivateKeyBytes returns the serialized private key for operator backup.
func (s *Server) PrivateKeyBytes() ([]byte, error) {
	return s.key.MarshalBinary()
}

// Request is a deserialized client evaluation request.
type Request struct {
	inner *circloprf.EvaluationRequest
}

// Evaluation is the result of blind-evaluating a Request.
type Evaluation struct {
	inner *circloprf.Evaluation
}

// DeserializeRequest parses the wire form of an evaluation request. It
// fails with ErrBadRequest on anything that does not decode to a valid
// group element.
func (s *Server) DeserializeRequest(data []byte) (*Request, error) {
	elem, err := decodeElement(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return &Request{inner: &circloprf.EvaluationRequest{Elements: []circloprf.Blinded{elem}}}, nil
}

// BlindEvaluate runs the suite's blind evaluation over the request.
func (s *Server) BlindEvaluate(req *Request) (*Evaluation, error) {
	eval, err := s.inner.Evaluate(req.inner)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return &Evaluation{inner: eval}, nil
}

// SerializeResponse encodes an evaluation for the wire.
func (s *Server) SerializeResponse(eval *Evaluation) ([]byte, error) {
	wire, err := eval.inner.Elements[0].MarshalBinaryCompress()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCrypto, err)
	}
	return wire, nil
}

// Evaluate composes deserialize, blind-evaluate, and serialize for the
// common single-round-trip case.
func (s *Server) Evaluate(requestWire []byte) ([]byte, error) {
	req, err := s.DeserializeRequest(requestWire)
	if err != nil {
		return nil, err
	}
	eval, err := s.BlindEvaluate(req)
	if err != nil {
		return nil, err
	}
	return s.SerializeResponse(eval)
}
