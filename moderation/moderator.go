// Package moderation censors forbidden words in relayed text content.
package moderation

import (
	"bufio"
	"os"
	"strings"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator holds an Aho-Corasick automaton built over a normalized word
// list. Matching runs on a normalized view of the input (lowercase, leet
// characters mapped back, punctuation and spacing stripped) while replacement
// happens on the original runes, so spacing and casing survive censoring.
type Moderator struct {
	matcher      *goahocorasick.Machine
	censoredChar rune
}

// leet maps common substitution characters back to their letter.
var leet = map[rune]rune{
	'4': 'a', '@': 'a',
	'3': 'e', '€': 'e',
	'1': 'i', '!': 'i', '|': 'i',
	'0': 'o',
	'5': 's', '$': 's',
}

func NewModerator(censoredWords []string, censoredChar rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(censoredWords))
	for _, word := range censoredWords {
		if normalized := normalize(word).runes; len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, censoredChar: censoredChar}, nil
}

// LoadWords reads one censored word per line, skipping blanks and # comments.
func LoadWords(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// Censor replaces every forbidden span in original and returns the result
// together with the normalized words that matched. A clean input comes back
// untouched with a nil match list.
func (m *Moderator) Censor(original string) (string, []string) {
	view := normalize(original)
	if len(view.runes) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(view.runes, false)
	if len(spans) == 0 {
		return original, nil
	}

	origRunes := []rune(original)
	var found []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(view.origIdx) {
			continue
		}
		found = append(found, string(span.Word))

		// view.origIdx maps normalized positions back into the original
		for i := view.origIdx[start]; i <= view.origIdx[end-1]; i++ {
			origRunes[i] = m.censoredChar
		}
	}
	return string(origRunes), found
}

// normalizedView pairs the searchable runes with the index of the original
// rune each one came from.
type normalizedView struct {
	runes   []rune
	origIdx []int
}

func normalize(input string) normalizedView {
	origRunes := []rune(input)
	view := normalizedView{
		runes:   make([]rune, 0, len(origRunes)),
		origIdx: make([]int, 0, len(origRunes)),
	}
	for i, r := range origRunes {
		if mapped, ok := leet[r]; ok {
			r = mapped
		}
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		view.runes = append(view.runes, unicode.ToLower(r))
		view.origIdx = append(view.origIdx, i)
	}
	return view
}
