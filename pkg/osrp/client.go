package osrp

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/osrplabs/osrp/pkg/bigmath"
	"github.com/osrplabs/osrp/pkg/oprf"
)

// Client drives registration and login for one user. It owns the OPRF
// client role; blind state from an in-flight OPRF round trip is confined
// to the values returned by BlindOPRFInput.
type Client struct {
	oprf oprf.Client
}

// NewClient creates a protocol client.
func NewClient() *Client {
	return &Client{oprf: oprf.NewClient()}
}

// GenerateSalt returns a fresh random salt as 2*HashBytes hex digits.
func (c *Client) GenerateSalt() (string, error) {
	s, err := bigmath.Random(HashBytes)
	if err != nil {
		return "", err
	}
	return s.Hex(), nil
}

// DerivePrivateKey derives the salted password key
// sk = H(salt, H(username ":" password)) and returns it as hex.
func (c *Client) DerivePrivateKey(salt, username, password string) (string, error) {
	saltInt, err := bigmath.FromHex(salt)
	if err != nil {
		return "", fmt.Errorf("parsing salt: %w", err)
	}
	inner, err := bigmath.H(username + ":" + password)
	if err != nil {
		return "", err
	}
	sk, err := bigmath.H(saltInt, inner)
	if err != nil {
		return "", err
	}
	return sk.Hex(), nil
}

// DerivePrivateVerifier computes v' = g^sk mod N and returns its raw
// big-endian byte encoding. The private verifier is never stored; it is
// only ever used as OPRF input.
func (c *Client) DerivePrivateVerifier(skHex string) ([]byte, error) {
	sk, err := bigmath.FromHex(skHex)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return G.ModPow(sk, N).Bytes(), nil
}

// BlindOPRFInput blinds the private verifier for one OPRF server and
// returns the use-once blind state together with the serialized request.
func (c *Client) BlindOPRFInput(privateVerifier []byte) (*oprf.BlindState, []byte, error) {
	return c.oprf.Blind(privateVerifier)
}

// FinalizeOPRF consumes the blind state with the server's serialized
// response and returns the PRF output as lowercase hex.
func (c *Client) FinalizeOPRF(state *oprf.BlindState, response []byte) (string, error) {
	out, err := c.oprf.Finalize(state, response)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(out), nil
}

// DeriveVerifierHash binds the private verifier and every OPRF output
// into the single secret exponent x = H(v' || v1' || ... || vn').
// The hex strings are concatenated without separators and reinterpreted
// as one integer before hashing; the order is fixed at registration and
// must be replayed exactly at login.
func (c *Client) DeriveVerifierHash(parts ...string) (string, error) {
	joined, err := bigmath.FromHex(strings.Join(parts, ""))
	if err != nil {
		return "", fmt.Errorf("parsing verifier material: %w", err)
	}
	x, err := bigmath.H(joined)
	if err != nil {
		return "", err
	}
	return x.Hex(), nil
}

// DerivePublicVerifier computes the stored verifier v = g^x mod N.
func (c *Client) DerivePublicVerifier(xHex string) (string, error) {
	x, err := bigmath.FromHex(xHex)
	if err != nil {
		return "", fmt.Errorf("parsing verifier hash: %w", err)
	}
	return G.ModPow(x, N).Hex(), nil
}

// GenerateEphemeral draws the per-login secret a and computes
// A = g^a mod N.
func (c *Client) GenerateEphemeral() (*Ephemeral, error) {
	a, err := bigmath.Random(HashBytes)
	if err != nil {
		return nil, err
	}
	return &Ephemeral{
		Secret: a.Hex(),
		Public: G.ModPow(a, N).Hex(),
	}, nil
}

// DeriveSession computes the client's session key and proof:
//
//	u = H(A, B)
//	S = ((B + N - k*g^x) mod N)^(a + u*x) mod N
//	K = H(S)
//	M = H(H(N) xor H(g), H(username), salt, A, B, K)
//
// It fails with ErrInvalidServerEphemeral when B mod N == 0, before any
// secret-dependent computation.
func (c *Client) DeriveSession(aHex, bPubHex, salt, username, xHex string) (*Session, error) {
	b, err := bigmath.FromHex(bPubHex)
	if err != nil {
		return nil, fmt.Errorf("parsing server ephemeral: %w", err)
	}
	if b.Mod(N).IsZero() {
		return nil, ErrInvalidServerEphemeral
	}

	a, err := bigmath.FromHex(aHex)
	if err != nil {
		return nil, fmt.Errorf("parsing ephemeral secret: %w", err)
	}
	x, err := bigmath.FromHex(xHex)
	if err != nil {
		return nil, fmt.Errorf("parsing verifier hash: %w", err)
	}
	saltInt, err := bigmath.FromHex(salt)
	if err != nil {
		return nil, fmt.Errorf("parsing salt: %w", err)
	}

	aPub := G.ModPow(a, N)

	u, err := bigmath.H(aPub, b)
	if err != nil {
		return nil, err
	}

	// The + N keeps the base non-negative before reduction; B alone may
	// be smaller than k*g^x mod N.
	kgx := K.Mul(G.ModPow(x, N)).Mod(N)
	base := b.Add(N).Sub(kgx).Mod(N)
	exp := a.Add(u.Mul(x))
	s := base.ModPow(exp, N)

	key, err := bigmath.H(s)
	if err != nil {
		return nil, err
	}
	proof, err := SessionProof(username, saltInt, aPub, b, key)
	if err != nil {
		return nil, err
	}

	return &Session{Key: key.Hex(), Proof: proof.Hex()}, nil
}

// VerifySession checks the server's proof P against H(A, M, K). On
// mismatch the session key must be discarded.
func (c *Client) VerifySession(aPubHex string, session *Session, serverProof string) error {
	aPub, err := bigmath.FromHex(aPubHex)
	if err != nil {
		return fmt.Errorf("parsing client ephemeral: %w", err)
	}
	m, err := bigmath.FromHex(session.Proof)
	if err != nil {
		return fmt.Errorf("parsing client proof: %w", err)
	}
	key, err := bigmath.FromHex(session.Key)
	if err != nil {
		return fmt.Errorf("parsing session key: %w", err)
	}
	expected, err := bigmath.H(aPub, m, key)
	if err != nil {
		return err
	}
	if !EqualProofs(expected.Hex(), serverProof) {
		return ErrBadServerProof
	}
	return nil
}

// SessionProof computes M = H(H(N) xor H(g), H(username), salt, A, B, K).
// Both sides evaluate the same expression; the server compares it against
// the client's submission before revealing its own proof.
func SessionProof(username string, salt, aPub, bPub, key bigmath.Int) (bigmath.Int, error) {
	hn, err := bigmath.H(N)
	if err != nil {
		return bigmath.Int{}, err
	}
	hg, err := bigmath.H(G)
	if err != nil {
		return bigmath.Int{}, err
	}
	hu, err := bigmath.H(username)
	if err != nil {
		return bigmath.Int{}, err
	}
	return bigmath.H(hn.Xor(hg), hu, salt, aPub, bPub, key)
}
