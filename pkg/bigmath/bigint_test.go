package bigmath

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

func TestFromHexRoundTrip(t *testing.T) {
	cases := []string{
		"00",
		"0a",
		"ff",
		"0001",
		"deadbeef",
		"00000000000000000000000000000001",
		"123456789abcdef0123456789abcdef0",
	}
	for _, s := range cases {
		x, err := FromHex(s)
		if err != nil {
			t.Fatalf("FromHex(%q): %v", s, err)
		}
		if got := x.Hex(); got != s {
			t.Errorf("FromHex(%q).Hex() = %q", s, got)
		}
	}
}

func TestFromHexCaseInsensitive(t *testing.T) {
	upper, err := FromHex("DEADBEEF")
	if err != nil {
		t.Fatal(err)
	}
	lower, err := FromHex("deadbeef")
	if err != nil {
		t.Fatal(err)
	}
	if !upper.Eq(lower) {
		t.Error("expected case-insensitive parse")
	}
	if upper.Hex() != "deadbeef" {
		t.Errorf("expected lowercase emission, got %q", upper.Hex())
	}
}

func TestFromHexEmpty(t *testing.T) {
	x, err := FromHex("")
	if err != nil {
		t.Fatal(err)
	}
	if !x.IsZero() {
		t.Error("expected zero value")
	}
	if got := x.Hex(); got != "0" {
		t.Errorf("expected minimal emission for width 0, got %q", got)
	}
}

func TestFromHexRejectsNonHex(t *testing.T) {
	for _, s := range []string{"xyz", "12g4", "0x12", "12 34", "-1"} {
		if _, err := FromHex(s); !errors.Is(err, ErrBadInput) {
			t.Errorf("FromHex(%q): expected ErrBadInput, got %v", s, err)
		}
	}
}

func TestHexPadding(t *testing.T) {
	x, err := FromHex("0001")
	if err != nil {
		t.Fatal(err)
	}
	if got := x.Hex(); got != "0001" {
		t.Errorf("expected width-preserving padding, got %q", got)
	}

	// Arithmetic loses the canonical width.
	y := x.Add(Zero)
	if got := y.Hex(); got != "1" {
		t.Errorf("expected minimal emission after arithmetic, got %q", got)
	}
}

func TestRandomWidth(t *testing.T) {
	x, err := Random(32)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(x.Hex()); got != 64 {
		t.Errorf("expected 64 hex digits, got %d", got)
	}

	y, err := Random(32)
	if err != nil {
		t.Fatal(err)
	}
	if x.Eq(y) {
		t.Error("two random draws compared equal")
	}
}

func TestBytes(t *testing.T) {
	x, err := FromHex("00ff01")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(x.Bytes(), []byte{0xff, 0x01}) {
		t.Errorf("unexpected bytes %x", x.Bytes())
	}
	if len(Zero.Bytes()) != 0 {
		t.Error("expected empty bytes for zero")
	}
}

func TestArithmetic(t *testing.T) {
	a := FromInt(91)
	b := FromInt(7)

	if got := a.Add(b); !got.Eq(FromInt(98)) {
		t.Errorf("Add = %s", got.Hex())
	}
	if got := a.Sub(b); !got.Eq(FromInt(84)) {
		t.Errorf("Sub = %s", got.Hex())
	}
	if got := a.Mul(b); !got.Eq(FromInt(637)) {
		t.Errorf("Mul = %s", got.Hex())
	}
	if got := a.Div(b); !got.Eq(FromInt(13)) {
		t.Errorf("Div = %s", got.Hex())
	}
	if got := FromInt(92).Mod(b); !got.Eq(FromInt(1)) {
		t.Errorf("Mod = %s", got.Hex())
	}
}

func TestModPow(t *testing.T) {
	m := FromInt(1000003)
	base := FromInt(12345)
	exp := FromInt(6789)

	want := new(big.Int).Exp(big.NewInt(12345), big.NewInt(6789), big.NewInt(1000003))
	got := base.ModPow(exp, m)
	if got.Hex() != want.Text(16) {
		t.Errorf("ModPow = %s, want %s", got.Hex(), want.Text(16))
	}

	// Exponent zero yields 1 mod m.
	if got := base.ModPow(Zero, m); !got.Eq(One) {
		t.Errorf("ModPow(_, 0, m) = %s", got.Hex())
	}

	// Result is always in [0, m).
	if got := base.ModPow(exp, m); !got.Lt(m) {
		t.Error("ModPow result not reduced")
	}
}

func TestModInverse(t *testing.T) {
	p := FromInt(101) // prime modulus
	x := FromInt(37)

	inv, err := x.ModInverse(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := x.Mul(inv).Mod(p); !got.Eq(One) {
		t.Errorf("x * x^-1 mod p = %s", got.Hex())
	}

	// gcd(x, m) != 1 has no inverse.
	if _, err := FromInt(10).ModInverse(FromInt(15)); !errors.Is(err, ErrNoInverse) {
		t.Errorf("expected ErrNoInverse, got %v", err)
	}
}

func TestXorPreservesWidth(t *testing.T) {
	a, err := FromHex("00f0")
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromHex("0f")
	if err != nil {
		t.Fatal(err)
	}
	got := a.Xor(b)
	if got.Hex() != "00ff" {
		t.Errorf("Xor = %q", got.Hex())
	}
}

func TestComparators(t *testing.T) {
	a := FromInt(3)
	b := FromInt(5)
	if !a.Lt(b) || a.Gt(b) || a.Eq(b) {
		t.Error("comparator mismatch for 3 vs 5")
	}
	if !b.Gt(a) {
		t.Error("expected 5 > 3")
	}
	c, err := FromHex("0005")
	if err != nil {
		t.Fatal(err)
	}
	if !b.Eq(c) {
		t.Error("expected value equality to ignore width")
	}
}

func TestMustHexPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustHex("not-hex")
}

func TestRoundTripLongValue(t *testing.T) {
	s := strings.Repeat("5a", 384) // 3072-bit sized value
	x, err := FromHex(s)
	if err != nil {
		t.Fatal(err)
	}
	if x.Hex() != s {
		t.Error("round trip of 768-digit value failed")
	}
	if len(x.Bytes()) != 384 {
		t.Errorf("expected 384 bytes, got %d", len(x.Bytes()))
	}
}
