// Package batchid canonicalizes batch identifiers so path params match stored ids
// Pipeline order
// 1 drop invalid UTF-8
// 2 NFKC
// 3 width fold fullwidth to ASCII
// 4 strip format chars (ZWJ, BOM ...)
// 5 upper case
// 6 trim surrounding space
package batchid

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// MaxLen bounds a normalized id
const MaxLen = 64

var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			width.Fold,
			runes.Remove(runes.In(unicode.Cf)),
			cases.Upper(language.Und),
		)
	},
}

// Normalize returns the canonical form of s; "ｂ００１ " becomes "B001"
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	ns, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		ns = strings.ToUpper(s)
	}
	return strings.TrimSpace(ns)
}

// Valid reports whether a normalized id is usable as a key:
// non-empty, bounded, and only letters, digits, '-', '_' or '.'
func Valid(id string) bool {
	if id == "" || len(id) > MaxLen {
		return false
	}
	for _, r := range id {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}

// Format renders the n-th generated id, 1-based: 1 -> B001
func Format(n int) string { return fmt.Sprintf("B%03d", n) }
