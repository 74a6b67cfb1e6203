package osrp

import (
	"errors"
	"strings"
	"testing"

	"github.com/osrplabs/osrp/pkg/bigmath"
)

func TestGenerateSalt(t *testing.T) {
	c := NewClient()
	s1, err := c.GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	if len(s1) != 2*HashBytes {
		t.Errorf("expected %d hex digits, got %d", 2*HashBytes, len(s1))
	}
	s2, err := c.GenerateSalt()
	if err != nil {
		t.Fatal(err)
	}
	if s1 == s2 {
		t.Error("two salts compared equal")
	}
}

func TestDerivePrivateKeyDeterministic(t *testing.T) {
	c := NewClient()
	salt := strings.Repeat("01", 32)

	sk1, err := c.DerivePrivateKey(salt, "testuser", "testpassword")
	if err != nil {
		t.Fatal(err)
	}
	sk2, err := c.DerivePrivateKey(salt, "testuser", "testpassword")
	if err != nil {
		t.Fatal(err)
	}
	if sk1 != sk2 {
		t.Error("private key derivation is not deterministic")
	}
	if len(sk1) != 64 {
		t.Errorf("expected 64 hex digits, got %d", len(sk1))
	}

	// Any credential change moves the key.
	sk3, err := c.DerivePrivateKey(salt, "testuser", "testpassworD")
	if err != nil {
		t.Fatal(err)
	}
	if sk1 == sk3 {
		t.Error("password change did not move the private key")
	}
}

func TestDerivePrivateKeyRejectsBadSalt(t *testing.T) {
	c := NewClient()
	if _, err := c.DerivePrivateKey("not-hex", "u", "p"); !errors.Is(err, bigmath.ErrBadInput) {
		t.Errorf("expected ErrBadInput, got %v", err)
	}
}

func TestDerivePrivateVerifier(t *testing.T) {
	c := NewClient()
	sk := strings.Repeat("ab", 32)

	pv, err := c.DerivePrivateVerifier(sk)
	if err != nil {
		t.Fatal(err)
	}

	skInt := bigmath.MustHex(sk)
	want := G.ModPow(skInt, N)
	if !bigmath.FromBytes(pv).Eq(want) {
		t.Error("private verifier does not equal g^sk mod N")
	}
}

func TestDeriveVerifierHashConcatenation(t *testing.T) {
	c := NewClient()

	// The contract is H over the single integer formed by hex
	// concatenation, not over separate field elements.
	parts := []string{"0a0b", "0c0d", "0e0f"}
	got, err := c.DeriveVerifierHash(parts...)
	if err != nil {
		t.Fatal(err)
	}

	joined := bigmath.MustHex("0a0b0c0d0e0f")
	want, err := bigmath.H(joined)
	if err != nil {
		t.Fatal(err)
	}
	if got != want.Hex() {
		t.Errorf("verifier hash = %s, want %s", got, want.Hex())
	}

	// Order is load-bearing.
	swapped, err := c.DeriveVerifierHash("0c0d", "0a0b", "0e0f")
	if err != nil {
		t.Fatal(err)
	}
	if got == swapped {
		t.Error("reordering OPRF outputs did not change the verifier hash")
	}
}

func TestDerivePublicVerifier(t *testing.T) {
	c := NewClient()
	x := strings.Repeat("12", 32)

	vHex, err := c.DerivePublicVerifier(x)
	if err != nil {
		t.Fatal(err)
	}
	want := G.ModPow(bigmath.MustHex(x), N)
	if !bigmath.MustHex(vHex).Eq(want) {
		t.Error("public verifier does not equal g^x mod N")
	}
}

func TestGenerateEphemeral(t *testing.T) {
	c := NewClient()

	e1, err := c.GenerateEphemeral()
	if err != nil {
		t.Fatal(err)
	}
	a := bigmath.MustHex(e1.Secret)
	if !bigmath.MustHex(e1.Public).Eq(G.ModPow(a, N)) {
		t.Error("A does not equal g^a mod N")
	}

	e2, err := c.GenerateEphemeral()
	if err != nil {
		t.Fatal(err)
	}
	if e1.Secret == e2.Secret {
		t.Error("ephemeral secrets must not repeat")
	}
}

func TestDeriveSessionRejectsMalformedInput(t *testing.T) {
	c := NewClient()
	eph, err := c.GenerateEphemeral()
	if err != nil {
		t.Fatal(err)
	}
	salt := strings.Repeat("01", 32)
	x := strings.Repeat("ab", 32)

	if _, err := c.DeriveSession(eph.Secret, "zz", salt, "u", x); !errors.Is(err, bigmath.ErrBadInput) {
		t.Errorf("expected ErrBadInput for malformed B, got %v", err)
	}
	if _, err := c.DeriveSession("zz", "02", salt, "u", x); !errors.Is(err, bigmath.ErrBadInput) {
		t.Errorf("expected ErrBadInput for malformed a, got %v", err)
	}
}

func TestEqualProofs(t *testing.T) {
	if !EqualProofs("abcd", "ABCD") {
		t.Error("expected case-insensitive equality")
	}
	if EqualProofs("abcd", "abce") {
		t.Error("expected mismatch")
	}
	if EqualProofs("abcd", "abc") {
		t.Error("expected length mismatch to fail")
	}
}
