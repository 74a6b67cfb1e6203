// Package auth implements the server side of the oblivious SRP protocol:
// verifier-based session derivation, the OPRF evaluator role, per-username
// rate limiting, and post-login session tokens.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/osrplabs/osrp/pkg/bigmath"
	"github.com/osrplabs/osrp/pkg/oprf"
	"github.com/osrplabs/osrp/pkg/osrp"
)

var (
	// ErrInvalidClientEphemeral is returned when the client's public
	// ephemeral A is zero modulo N.
	ErrInvalidClientEphemeral = errors.New("auth: invalid client ephemeral")

	// ErrBadClientProof is returned when the client's session proof does
	// not verify. The server proof is withheld.
	ErrBadClientProof = errors.New("auth: client proof mismatch")

	// ErrInvalidVerifier is returned for a zero stored verifier.
	ErrInvalidVerifier = errors.New("auth: invalid verifier")
)

// Config carries the tunable parts of a Server.
type Config struct {
	// RateWindow is the sliding-window length for per-username OPRF
	// evaluations.
	RateWindow time.Duration

	// RateMaxRequests is the evaluation budget per username per window.
	RateMaxRequests int

	// OPRFPrivateKey optionally injects an externally managed OPRF key;
	// when nil a fresh key is generated at construction.
	OPRFPrivateKey []byte
}

// Server is one oblivious SRP server. It owns the OPRF evaluator role
// and its rate limiter; many sessions may be serviced concurrently, the
// limiter map being the only shared mutable state.
type Server struct {
	oprf    *oprf.Server
	limiter *RateLimiter
}

// NewServer constructs a server from cfg.
func NewServer(cfg Config) (*Server, error) {
	var oprfServer *oprf.Server
	var err error
	if cfg.OPRFPrivateKey != nil {
		oprfServer, err = oprf.NewServerWithKey(cfg.OPRFPrivateKey)
	} else {
		oprfServer, err = oprf.NewServer()
	}
	if err != nil {
		return nil, err
	}

	return &Server{
		oprf:    oprfServer,
		limiter: NewRateLimiter(cfg.RateWindow, cfg.RateMaxRequests),
	}, nil
}

// Close releases the server's background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}

// OPRFPrivateKey returns the serialized OPRF key for operator backup.
// Rotating the key invalidates every verifier registered under it.
func (s *Server) OPRFPrivateKey() ([]byte, error) {
	return s.oprf.PrivateKeyBytes()
}

// PerformOPRFEval evaluates one blinded request for username, charging
// the username's rate budget first. Denied requests are not recorded.
func (s *Server) PerformOPRFEval(username string, request []byte) ([]byte, error) {
	if err := s.limiter.CheckAndRecord(username, time.Now()); err != nil {
		return nil, err
	}
	return s.oprf.Evaluate(request)
}

// GenerateEphemeral draws the per-login secret b and computes
// B = (k*v + g^b) mod N for the stored verifier. A zero verifier is
// rejected before any ephemeral is drawn.
func (s *Server) GenerateEphemeral(verifierHex string) (*osrp.Ephemeral, error) {
	v, err := bigmath.FromHex(verifierHex)
	if err != nil {
		return nil, fmt.Errorf("parsing verifier: %w", err)
	}
	if v.IsZero() {
		return nil, ErrInvalidVerifier
	}

	b, err := bigmath.Random(osrp.HashBytes)
	if err != nil {
		return nil, err
	}

	bPub := osrp.K.Mul(v).Add(osrp.G.ModPow(b, osrp.N)).Mod(osrp.N)
	return &osrp.Ephemeral{Secret: b.Hex(), Public: bPub.Hex()}, nil
}

// DeriveSession verifies the client's proof and derives the session key:
//
//	u = H(A, B)   with B recomputed from the stored secret b and v
//	S = (A * v^u)^b mod N
//	K = H(S)
//	M' = H(H(N) xor H(g), H(username), salt, A, B, K)
//
// B is never taken from the wire. When the submitted proof does not
// match M' the call fails with ErrBadClientProof and no server proof is
// produced; otherwise it returns K with P = H(A, M', K).
func (s *Server) DeriveSession(bHex, aPubHex, salt, username, verifierHex, clientProof string) (*osrp.Session, error) {
	aPub, err := bigmath.FromHex(aPubHex)
	if err != nil {
		return nil, fmt.Errorf("parsing client ephemeral: %w", err)
	}
	if aPub.Mod(osrp.N).IsZero() {
		return nil, ErrInvalidClientEphemeral
	}

	b, err := bigmath.FromHex(bHex)
	if err != nil {
		return nil, fmt.Errorf("parsing ephemeral secret: %w", err)
	}
	v, err := bigmath.FromHex(verifierHex)
	if err != nil {
		return nil, fmt.Errorf("parsing verifier: %w", err)
	}
	saltInt, err := bigmath.FromHex(salt)
	if err != nil {
		return nil, fmt.Errorf("parsing salt: %w", err)
	}

	bPub := osrp.K.Mul(v).Add(osrp.G.ModPow(b, osrp.N)).Mod(osrp.N)

	u, err := bigmath.H(aPub, bPub)
	if err != nil {
		return nil, err
	}

	avu := aPub.Mul(v.ModPow(u, osrp.N)).Mod(osrp.N)
	secret := avu.ModPow(b, osrp.N)

	key, err := bigmath.H(secret)
	if err != nil {
		return nil, err
	}

	expected, err := osrp.SessionProof(username, saltInt, aPub, bPub, key)
	if err != nil {
		return nil, err
	}
	if !osrp.EqualProofs(expected.Hex(), clientProof) {
		return nil, ErrBadClientProof
	}

	proof, err := bigmath.H(aPub, expected, key)
	if err != nil {
		return nil, err
	}
	return &osrp.Session{Key: key.Hex(), Proof: proof.Hex()}, nil
}
