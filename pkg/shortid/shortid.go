// Package shortid derives the 6-character public code that stands in for a
// ticket's full identifier in reply-to addresses and subject lines.
//
// Both the ingestion pipeline and any display/linking code must produce the
// same code for the same ticket id, so this is the single implementation
// site; nothing else in the codebase may re-derive the algorithm.
package shortid

import (
	"strconv"
	"strings"
)

// Alphabet is the 62-symbol set short codes are drawn from.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Length is the fixed size of every short code.
const Length = 6

// Encode maps a ticket id to its 6-character short code. Deterministic and
// pure; collisions between distinct ticket ids are possible and tolerated by
// the resolver, never prevented here.
func Encode(ticketID string) string {
	var hash int32
	for _, r := range ticketID {
		hash = (hash << 5) - hash + int32(r)
	}
	if hash < 0 {
		hash = -hash
	}

	hex := strconv.FormatInt(int64(hash), 16)
	value, _ := strconv.ParseUint(hex, 16, 64)

	var b strings.Builder
	for value > 0 {
		b.WriteByte(Alphabet[value%62])
		value /= 62
	}
	// digits were produced least-significant first
	runes := []byte(b.String())
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	code := string(runes)

	if len(code) > Length {
		return code[:Length]
	}
	return strings.Repeat(string(Alphabet[0]), Length-len(code)) + code
}
