package checkswear

import (
	"strings"

	"github.com/kljensen/snowball"
	"github.com/kljensen/snowball/russian"
)

// TokenizerConfig defines the normalization pipeline. Zero value disables all
// optional stages; DefaultTokenizerConfig enables everything the scorer uses.
type TokenizerConfig struct {
	Language        string // stemming and stopword language, only russian is bundled
	Stemming        bool   // reduce words to snowball stems
	RemoveStopwords bool   // drop common semantically light words
	RemoveUnigrams  bool   // drop words of length <= 1, catches empty strings
	CollapseRuns    bool   // collapse runs of 3+ identical characters to one
}

// DefaultTokenizerConfig returns the full pipeline used for model-ready text.
func DefaultTokenizerConfig() TokenizerConfig {
	return TokenizerConfig{
		Language:        "russian",
		Stemming:        true,
		RemoveStopwords: true,
		RemoveUnigrams:  true,
		CollapseRuns:    true,
	}
}

// Tokenize turns one raw chat string into normalized word tokens. The stages
// run in a fixed order: lowercase, transliteration, optional long-run
// collapse, whitespace split with per-word alphabetic filtering, stopword
// removal, unigram removal and stemming. The function is total, malformed
// input degrades to an empty token list.
func Tokenize(text string, cfg TokenizerConfig) []string {
	text = strings.ToLower(text)
	text = transliterate(text)
	if cfg.CollapseRuns {
		text = collapseRuns(text)
	}

	// the per-word filter is a 1:1 mapping, not a filter. a word made of
	// digits or punctuation becomes an empty string and stays in place,
	// keeping word-count alignment with the whitespace split
	words := strings.Fields(text)
	cleaned := make([]string, len(words))
	for i, w := range words {
		cleaned[i] = lettersOnly(w)
	}

	// pure punctuation or emoji input produces nothing to analyze
	if len(cleaned) == 0 || (len(cleaned) == 1 && cleaned[0] == "") {
		return []string{}
	}

	if cfg.RemoveStopwords {
		cleaned = dropStopwords(cleaned, cfg.Language)
	}
	if cfg.RemoveUnigrams {
		cleaned = dropUnigrams(cleaned)
	}
	if cfg.Stemming {
		for i, w := range cleaned {
			cleaned[i] = stemWord(w, cfg.Language)
		}
	}
	return cleaned
}

// transliterate applies every lexicon rule as a sequential whole-text literal
// replacement, normalizing look-alike character sequences before the
// alphabetic filter strips what's left.
func transliterate(text string) string {
	for _, p := range translitTable() {
		text = strings.ReplaceAll(text, p.From, p.To)
	}
	return text
}

// collapseRuns shortens any run of 3 or more identical runes to a single one.
// done with a rune scan, re2 has no backreferences.
func collapseRuns(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 3 {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}
	return b.String()
}

// lettersOnly strips every rune outside the russian core alphabet, digits and
// punctuation included.
func lettersOnly(word string) string {
	var b strings.Builder
	b.Grow(len(word))
	for _, r := range word {
		if (r >= 'а' && r <= 'я') || r == 'ё' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func dropStopwords(tokens []string, language string) []string {
	set := stopwords(language)
	res := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := set[t]; ok {
			continue
		}
		res = append(res, t)
	}
	return res
}

func dropUnigrams(tokens []string) []string {
	res := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len([]rune(t)) > 1 {
			res = append(res, t)
		}
	}
	return res
}

// stemWord reduces a word to its snowball stem. Unknown languages fall back
// to the word unchanged.
func stemWord(word, language string) string {
	if word == "" {
		return word
	}
	if language == "" || language == "russian" {
		return russian.Stem(word, false)
	}
	stemmed, err := snowball.Stem(word, language, false)
	if err != nil {
		return word
	}
	return stemmed
}
