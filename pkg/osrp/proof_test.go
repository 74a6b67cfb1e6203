package osrp

import (
	"strings"
	"testing"
)

// The comparison must cost the same whether proofs diverge in the first
// or the last digit; compare these two benchmarks to check for timing
// leaks.
func BenchmarkEqualProofsFirstDigitDiffers(b *testing.B) {
	expected := strings.Repeat("a", 64)
	supplied := "b" + strings.Repeat("a", 63)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EqualProofs(expected, supplied)
	}
}

func BenchmarkEqualProofsLastDigitDiffers(b *testing.B) {
	expected := strings.Repeat("a", 64)
	supplied := strings.Repeat("a", 63) + "b"
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EqualProofs(expected, supplied)
	}
}

func BenchmarkEqualProofsMatch(b *testing.B) {
	proof := strings.Repeat("a", 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		EqualProofs(proof, proof)
	}
}
