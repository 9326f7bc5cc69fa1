// Package kmer computes k-mer composition of reference intervals.
package kmer

import (
	"errors"
	"fmt"
)

// MaxK bounds k so that a count row (4^k entries) stays addressable.
const MaxK = 12

// ErrInvalidK is returned for k outside [1, MaxK].
var ErrInvalidK = errors.New("invalid k")

const alphabet = "ACGT"

// baseCode maps a base to its 2-bit rank in alphabet order, or -1.
func baseCode(b byte) int {
	switch b {
	case 'A', 'a':
		return 0
	case 'C', 'c':
		return 1
	case 'G', 'g':
		return 2
	case 'T', 't':
		return 3
	}
	return -1
}

// ValidateK checks that k is in [1, MaxK].
func ValidateK(k int) error {
	if k < 1 || k > MaxK {
		return fmt.Errorf("%w: %d (want 1..%d)", ErrInvalidK, k, MaxK)
	}
	return nil
}

// Enumerate returns all 4^k kmers in lexicographic order. The index of a
// kmer in the result is its base-4 value with A=0, C=1, G=2, T=3.
func Enumerate(k int) []string {
	n := 1 << (2 * k)
	out := make([]string, n)
	buf := make([]byte, k)
	for i := range n {
		v := i
		for j := k - 1; j >= 0; j-- {
			buf[j] = alphabet[v&3]
			v >>= 2
		}
		out[i] = string(buf)
	}
	return out
}

// Count returns the occurrence count of every kmer of seq, indexed as in
// Enumerate. Windows containing a base other than A, C, G or T (in either
// case) are skipped.
func Count(seq []byte, k int) []int {
	counts := make([]int, 1<<(2*k))
	mask := len(counts) - 1

	code, valid := 0, 0
	for _, b := range seq {
		c := baseCode(b)
		if c < 0 {
			valid = 0
			code = 0
			continue
		}
		code = (code<<2 | c) & mask
		valid++
		if valid >= k {
			counts[code]++
		}
	}
	return counts
}
