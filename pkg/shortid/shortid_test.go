package shortid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDeterministic(t *testing.T) {
	ids := []string{
		"ticket-001",
		"b8f2a9c4-3e17-4d52-9b61-7f8e2a4c5d90",
		"x",
		"",
		"a very long ticket identifier with spaces and symbols !@#$%",
	}
	for _, id := range ids {
		first := Encode(id)
		second := Encode(id)
		assert.Equal(t, first, second, "encode must be deterministic for %q", id)
	}
}

func TestEncodeAlphabetAndLength(t *testing.T) {
	ids := []string{
		"ticket-001",
		"ticket-002",
		"9f86d081884c7d65",
		"short",
		"",
	}
	for _, id := range ids {
		code := Encode(id)
		require.Len(t, code, Length, "code for %q", id)
		for _, r := range code {
			assert.Contains(t, Alphabet, string(r), "code %q for %q uses a symbol outside the alphabet", code, id)
		}
	}
}

func TestEncodeEmptyIDPadsWithFirstSymbol(t *testing.T) {
	assert.Equal(t, strings.Repeat("A", Length), Encode(""))
}

func TestEncodeDistinguishesTypicalIDs(t *testing.T) {
	seen := make(map[string]string)
	ids := []string{
		"c1d8e5f0a2b34c6d",
		"c1d8e5f0a2b34c6e",
		"c1d8e5f0a2b34c6f",
		"d72b9a1e4f503812",
		"e83ca02f5061492b",
	}
	for _, id := range ids {
		code := Encode(id)
		if prev, dup := seen[code]; dup {
			t.Fatalf("collision between %q and %q for code %q", prev, id, code)
		}
		seen[code] = id
	}
}
