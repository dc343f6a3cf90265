package service

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ITextService cleans vendor-supplied display strings before persistence.
// Wildberries text fields (titles, descriptions, campaign names) occasionally
// carry broken UTF-8, zero-width runes and stray control characters that the
// database should not see.
type ITextService interface {
	Clean(input string) string
}

type TextService struct {
	cleaner transform.Transformer
}

func NewTextService() *TextService {
	return &TextService{
		cleaner: transform.Chain(
			norm.NFC,
			runes.Remove(runes.Predicate(isJunkRune)),
		),
	}
}

// Clean normalizes input to NFC and strips control and format runes,
// keeping newlines and tabs. On transform failure the input is returned
// as-is rather than dropped.
func (ts *TextService) Clean(input string) string {
	input = strings.ToValidUTF8(input, "")
	out, _, err := transform.String(ts.cleaner, input)
	if err != nil {
		return input
	}
	return out
}

func isJunkRune(r rune) bool {
	if r == '\n' || r == '\t' {
		return false
	}
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
}
