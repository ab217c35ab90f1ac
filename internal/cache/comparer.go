package cache

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
)

// StringComparer compares string keys byte for byte, hashing with xxhash.
// It behaves like native equality and exists mainly as a building block.
type StringComparer struct{}

func (StringComparer) Hash(key string) uint64 { return xxhash.Sum64String(key) }

func (StringComparer) Equal(a, b string) bool { return a == b }

// FoldedStringComparer treats string keys that differ only in case as equal
// (Unicode simple case folding, as strings.EqualFold).
type FoldedStringComparer struct{}

func (FoldedStringComparer) Hash(key string) uint64 {
	d := xxhash.New()
	var buf [utf8.UTFMax]byte
	for _, r := range key {
		n := utf8.EncodeRune(buf[:], foldRune(r))
		_, _ = d.Write(buf[:n])
	}
	return d.Sum64()
}

func (FoldedStringComparer) Equal(a, b string) bool { return strings.EqualFold(a, b) }

// foldRune maps r to the smallest rune in its case-folding orbit, so every
// rune that EqualFold considers equal hashes the same.
func foldRune(r rune) rune {
	lowest := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lowest {
			lowest = f
		}
	}
	return lowest
}
