// Package bigmath provides the arbitrary-precision integer and hashing
// primitives for the oblivious SRP protocol. Values are non-negative,
// immutable, and remember the hex width they were parsed or generated
// with so that re-encoding reproduces the original padding.
package bigmath

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrBadInput is returned for malformed hex input or an unsupported
	// argument kind passed to H.
	ErrBadInput = errors.New("bigmath: bad input")

	// ErrNoInverse is returned when a modular inverse does not exist.
	ErrNoInverse = errors.New("bigmath: no modular inverse")
)

// noWidth marks a value without a canonical hex width; Hex() emits the
// minimal encoding for such values.
const noWidth = -1

// Int is an immutable non-negative arbitrary-precision integer.
// The zero value is not usable; construct values with FromHex, FromInt,
// FromBytes, or Random.
type Int struct {
	v     *big.Int
	width int
}

// Zero and One are the usual small constants, with no canonical width.
var (
	Zero = Int{v: big.NewInt(0), width: noWidth}
	One  = Int{v: big.NewInt(1), width: noWidth}
)

// FromHex parses s as case-insensitive hex and records len(s) as the
// value's hex width. The empty string parses to zero with width 0.
func FromHex(s string) (Int, error) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') && (c < 'A' || c > 'F') {
			return Int{}, fmt.Errorf("%w: non-hex character %q", ErrBadInput, rune(c))
		}
	}
	v := new(big.Int)
	if s != "" {
		v.SetString(strings.ToLower(s), 16)
	}
	return Int{v: v, width: len(s)}, nil
}

// MustHex is FromHex for compile-time constants; it panics on bad input.
func MustHex(s string) Int {
	x, err := FromHex(s)
	if err != nil {
		panic(err)
	}
	return x
}

// FromInt converts a non-negative native integer.
func FromInt(n int64) Int {
	if n < 0 {
		panic("bigmath: negative value")
	}
	return Int{v: big.NewInt(n), width: noWidth}
}

// FromBytes interprets b as a big-endian unsigned integer.
func FromBytes(b []byte) Int {
	return Int{v: new(big.Int).SetBytes(b), width: noWidth}
}

// Random returns a uniformly random value of nBytes bytes drawn from the
// cryptographic RNG, with hex width 2*nBytes.
func Random(nBytes int) (Int, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return Int{}, fmt.Errorf("bigmath: reading random bytes: %w", err)
	}
	return Int{v: new(big.Int).SetBytes(buf), width: 2 * nBytes}, nil
}

// Hex encodes the value as lowercase hex. When the value carries a hex
// width it is left-padded with zeros to that width; otherwise the
// encoding is minimal.
func (x Int) Hex() string {
	s := x.v.Text(16)
	if x.width != noWidth && len(s) < x.width {
		s = strings.Repeat("0", x.width-len(s)) + s
	}
	return s
}

// evenHex is the canonical byte-oriented encoding: minimal-or-padded hex,
// zero-extended to even length.
func (x Int) evenHex() string {
	s := x.Hex()
	if len(s)%2 == 1 {
		s = "0" + s
	}
	return s
}

// Bytes returns the big-endian byte encoding; its length is
// ceil(bitlen/8), so zero encodes to an empty slice.
func (x Int) Bytes() []byte {
	return x.v.Bytes()
}

// BitLen returns the length of the value in bits.
func (x Int) BitLen() int {
	return x.v.BitLen()
}

// Add returns x + y.
func (x Int) Add(y Int) Int {
	return Int{v: new(big.Int).Add(x.v, y.v), width: noWidth}
}

// Sub returns x - y. The caller must ensure x >= y, compensating modulo N
// first where the protocol requires it.
func (x Int) Sub(y Int) Int {
	return Int{v: new(big.Int).Sub(x.v, y.v), width: noWidth}
}

// Mul returns x * y.
func (x Int) Mul(y Int) Int {
	return Int{v: new(big.Int).Mul(x.v, y.v), width: noWidth}
}

// Div returns the floor quotient x / y.
func (x Int) Div(y Int) Int {
	return Int{v: new(big.Int).Quo(x.v, y.v), width: noWidth}
}

// Mod returns x mod m.
func (x Int) Mod(m Int) Int {
	return Int{v: new(big.Int).Mod(x.v, m.v), width: noWidth}
}

// ModPow returns x^exp mod m using square-and-multiply; the result is in
// [0, m). An exponent of zero yields 1 mod m.
func (x Int) ModPow(exp, m Int) Int {
	return Int{v: new(big.Int).Exp(x.v, exp.v, m.v), width: noWidth}
}

// ModInverse returns x^(m-2) mod m per Fermat's little theorem. It fails
// with ErrNoInverse when gcd(x, m) != 1. The result is correct only for
// prime m; callers must ensure primality.
func (x Int) ModInverse(m Int) (Int, error) {
	gcd := new(big.Int).GCD(nil, nil, x.v, m.v)
	if gcd.Cmp(big.NewInt(1)) != 0 {
		return Int{}, ErrNoInverse
	}
	exp := new(big.Int).Sub(m.v, big.NewInt(2))
	return Int{v: new(big.Int).Exp(x.v, exp, m.v), width: noWidth}, nil
}

// Xor returns the bitwise exclusive-or of x and y, keeping x's hex width.
func (x Int) Xor(y Int) Int {
	return Int{v: new(big.Int).Xor(x.v, y.v), width: x.width}
}

// Eq reports x == y. The comparison is on values, not widths.
func (x Int) Eq(y Int) bool {
	return x.v.Cmp(y.v) == 0
}

// Lt reports x < y.
func (x Int) Lt(y Int) bool {
	return x.v.Cmp(y.v) < 0
}

// Gt reports x > y.
func (x Int) Gt(y Int) bool {
	return x.v.Cmp(y.v) > 0
}

// IsZero reports whether the value is zero.
func (x Int) IsZero() bool {
	return x.v.Sign() == 0
}
