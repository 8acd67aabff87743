package sessioncode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateUsesUnambiguousAlphabet(t *testing.T) {
	for i := 0; i < 10000; i++ {
		code := Generate()
		require.True(t, strings.HasPrefix(code, Prefix+"-"), code)
		body := strings.TrimPrefix(code, Prefix+"-")
		require.Len(t, body, Length)
		for _, r := range body {
			require.True(t, strings.ContainsRune(Alphabet, r), "unexpected symbol %q in %s", r, code)
		}
		require.True(t, Validate(code), code)
	}
}

func TestAlphabetExcludesConfusables(t *testing.T) {
	for _, r := range "01OIL" {
		require.False(t, strings.ContainsRune(Alphabet, r), "alphabet contains %q", r)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]bool{
		"OSRS-ABC234":  true,
		"OSRS-ZZZZZZ":  true,
		"OSRS-abc234":  false,
		"OSRX-ABC234":  false,
		"OSRS-ABC23":   false,
		"OSRS-ABC2345": false,
		"OSRSABC234":   false,
		" OSRS-ABC234": false,
		"OSRS-ABC234 ": false,
		"OSRS-ABC0I1":  false,
		"":             false,
	}
	for code, want := range cases {
		require.Equal(t, want, Validate(code), "code %q", code)
	}
}
