// Package refcode generates and validates referral codes.
package refcode

import (
	"crypto/rand"
	"math/big"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	MinLength = 8
	MaxLength = 12

	alphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxInitials = 3
	maxIDChars  = 4
	suffixLen   = 4
)

var format = regexp.MustCompile(`^[A-Z0-9]{8,12}$`)

// Valid reports whether code has the referral code format.
func Valid(code string) bool {
	return format.MatchString(code)
}

// Normalize trims and upper-cases user input.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Generate builds a code from the initials of name, a fragment of id and a random suffix.
// The result always satisfies Valid.
func Generate(id, name string) (string, error) {
	var b strings.Builder
	b.WriteString(initials(name))
	b.WriteString(idFragment(id))
	n := suffixLen
	if b.Len()+n < MinLength {
		n = MinLength - b.Len()
	}
	suffix, err := random(n)
	if err != nil {
		return "", err
	}
	b.WriteString(suffix)
	return b.String(), nil
}

func initials(name string) string {
	var out []rune
	for _, word := range strings.Fields(fold(name)) {
		for _, r := range word {
			if r <= unicode.MaxASCII && unicode.IsLetter(r) {
				out = append(out, unicode.ToUpper(r))
				break
			}
		}
		if len(out) == maxInitials {
			break
		}
	}
	return string(out)
}

func idFragment(id string) string {
	var out []rune
	for _, r := range strings.ToUpper(id) {
		if strings.ContainsRune(alphabet, r) {
			out = append(out, r)
		}
	}
	if len(out) > maxIDChars {
		out = out[len(out)-maxIDChars:]
	}
	return string(out)
}

// fold strips diacritics so "João" becomes "Joao".
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func random(n int) (string, error) {
	buf := make([]byte, n)
	max := big.NewInt(int64(len(alphabet)))
	for i := range buf {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = alphabet[v.Int64()]
	}
	return string(buf), nil
}
