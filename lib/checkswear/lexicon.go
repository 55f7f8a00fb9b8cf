package checkswear

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	_ "embed"
)

//go:embed data/words.json
var wordsData []byte

//go:embed data/stopwords_ru.txt
var stopwordsData string

// translitPair is a single ordered transliteration rule, applied as a literal
// substring replacement over the whole text.
type translitPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// lexiconResource is the embedded words.json payload: the transliteration
// table and the pre-stemmed seed lexicon of flagged stems.
type lexiconResource struct {
	Transliteration []translitPair `json:"transliteration"`
	StemmedWords    []string       `json:"stemmed_words"`
}

var (
	lexiconOnce sync.Once
	lexiconRes  lexiconResource

	stopwordsOnce sync.Once
	stopwordsSet  map[string]struct{}
)

// loadLexicon parses the embedded words.json once. The resource is compiled
// into the binary, a parse failure is a build defect and not recoverable.
func loadLexicon() lexiconResource {
	lexiconOnce.Do(func() {
		if err := json.Unmarshal(wordsData, &lexiconRes); err != nil {
			panic(fmt.Sprintf("checkswear: malformed embedded lexicon: %v", err))
		}
	})
	return lexiconRes
}

// seedLexicon returns the pre-stemmed flagged stems from the embedded resource.
func seedLexicon() []string { return loadLexicon().StemmedWords }

// translitTable returns the ordered transliteration rules. Order matters,
// earlier replacements can affect whether later ones match.
func translitTable() []translitPair { return loadLexicon().Transliteration }

// stopwords returns the bundled russian stopword set, loaded lazily on first
// use. Only russian is bundled, any other language gets an empty set.
func stopwords(language string) map[string]struct{} {
	if language != "" && language != "russian" {
		return map[string]struct{}{}
	}
	stopwordsOnce.Do(func() {
		stopwordsSet = make(map[string]struct{})
		for _, w := range strings.Fields(stopwordsData) {
			stopwordsSet[w] = struct{}{}
		}
	})
	return stopwordsSet
}

// patternSet holds the two compiled lexicon patterns. The strong pattern
// matches a flagged stem anywhere as a substring, the weak pattern requires
// the stem to stand as a whole boundary-delimited word.
type patternSet struct {
	strong *regexp.Regexp
	weak   *regexp.Regexp
}

// buildPatterns compiles the pattern set from the seed lexicon merged with
// user-supplied stop words. Stop words go through the full default
// tokenization so they match the same normalized space as the seed stems.
func buildPatterns(userStopWords []string) patternSet {
	words := seedLexicon()
	if len(userStopWords) > 0 {
		extra := Tokenize(strings.Join(userStopWords, " "), DefaultTokenizerConfig())
		words = append(append([]string{}, words...), extra...)
	}

	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	alt := strings.Join(quoted, "|")

	// go regexp \b is ascii-only and useless for cyrillic, the word boundary
	// is spelled out as non-letter or string edge
	strong := regexp.MustCompile(alt)
	weak := regexp.MustCompile(`(?:^|[^а-яё])(?:` + alt + `)(?:[^а-яё]|$)`)
	return patternSet{strong: strong, weak: weak}
}
