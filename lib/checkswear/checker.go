package checkswear

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/forPelevin/gomoji"
	"github.com/hashicorp/go-multierror"
)

// Notice is a non-fatal advisory produced while scoring, surfaced to the
// caller instead of a process-wide warning stream.
type Notice struct {
	Name    string `json:"name"`    // name of the advisory source
	Details string `json:"details"` // human-readable details
}

func (n Notice) String() string { return fmt.Sprintf("%s: %s", n.Name, n.Details) }

// Config is a set of parameters for Checker.
type Config struct {
	RegPred   bool     // enable lexicon regex boosting of model probabilities
	Bins      int      // number of segments to split a single text into, 0 - no segmentation
	StopWords []string // extra words merged into the lexicon patterns, inert without RegPred
}

// Checker scores texts for profanity. It combines an injected vectorizer and
// classifier pair with lexicon-based pattern matching, thread-safe.
type Checker struct {
	Config
	vectorizer Vectorizer
	classifier Classifier

	patternsOnce sync.Once
	patterns     patternSet

	lastSegments []string
	lastNotices  []Notice

	lock sync.RWMutex
}

// NewChecker makes a new Checker with the given config and model
// collaborators. Invalid configuration fails fast with all violations
// collected into one error.
func NewChecker(cfg Config, vectorizer Vectorizer, classifier Classifier) (*Checker, error) {
	var result *multierror.Error
	if cfg.Bins < 0 {
		result = multierror.Append(result, fmt.Errorf("bins must be zero or positive, got %d", cfg.Bins))
	}
	for i, w := range cfg.StopWords {
		if strings.TrimSpace(w) == "" {
			result = multierror.Append(result, fmt.Errorf("stop word %d is blank", i))
		}
	}
	if vectorizer == nil {
		result = multierror.Append(result, fmt.Errorf("vectorizer is required"))
	}
	if classifier == nil {
		result = multierror.Append(result, fmt.Errorf("classifier is required"))
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid checker config: %w", err)
	}

	if !cfg.RegPred && len(cfg.StopWords) > 0 {
		log.Printf("[WARN] stop words set but regex prediction disabled, stop words have no effect")
	}
	return &Checker{Config: cfg, vectorizer: vectorizer, classifier: classifier}, nil
}

// PredictProba returns the probability of each analysis unit containing
// profanity, positionally aligned with the segmentation.
func (c *Checker) PredictProba(in Input) ([]float64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()

	units, notices, err := segmentInput(in, c.Bins)
	if err != nil {
		return nil, err
	}
	if !c.RegPred && len(c.StopWords) > 0 {
		notices = append(notices, Notice{Name: "stop-words",
			Details: "stop words are inert because regex prediction is disabled"})
	}

	modelTexts := make([]string, len(units))
	for i, u := range units {
		tokens := Tokenize(u, DefaultTokenizerConfig())
		if len(tokens) == 0 && strings.TrimSpace(u) != "" && !hasAlphabeticContent(u) {
			details := "no usable tokens after normalization"
			if gomoji.ContainsEmoji(u) {
				details = "emoji or punctuation only, probability may be unreliable"
			}
			notices = append(notices, Notice{Name: "segment", Details: fmt.Sprintf("segment %d: %s", i, details)})
		}
		modelTexts[i] = strings.Join(tokens, " ")
	}

	probs := make([]float64, len(units))
	for i, p := range c.classifier.PredictProba(c.vectorizer.Transform(modelTexts)) {
		probs[i] = p[1] // positive-class column only
	}

	if c.RegPred {
		c.patternsOnce.Do(func() {
			// built once per instance from construction-time stop words,
			// later mutation of StopWords is unsupported
			c.patterns = buildPatterns(c.StopWords)
		})
		for i, u := range units {
			boost := 0.5 * float64(c.matchCount(u))
			probs[i] = (probs[i] + boost) / (1.0 + boost)
		}
	}

	for _, n := range notices {
		log.Printf("[WARN] %s", n)
	}
	c.lastSegments = units
	c.lastNotices = notices
	return probs, nil
}

// Predict labels each analysis unit: 1 if its probability is greater or equal
// to the threshold, 0 otherwise. Ties round to positive.
func (c *Checker) Predict(in Input, threshold float64) ([]int, error) {
	probs, err := c.PredictProba(in)
	if err != nil {
		return nil, err
	}
	labels := make([]int, len(probs))
	for i, p := range probs {
		if p >= threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

// hasAlphabeticContent reports whether a unit keeps at least one token after
// lowercasing, transliteration and alphabetic filtering alone. Units failing
// this feed an empty string to the model and deserve an advisory.
func hasAlphabeticContent(unit string) bool {
	for _, tok := range Tokenize(unit, TokenizerConfig{}) {
		if tok != "" {
			return true
		}
	}
	return false
}

// matchCount counts lexicon hits for one raw unit: +1 if the strong pattern
// matches the concatenated token stream, +1 if the weak pattern matches the
// space-joined default tokenization.
func (c *Checker) matchCount(unit string) int {
	strongCfg := DefaultTokenizerConfig()
	strongCfg.RemoveStopwords = false
	strongCfg.RemoveUnigrams = false
	strongText := strings.Join(Tokenize(unit, strongCfg), "")
	weakText := strings.Join(Tokenize(unit, DefaultTokenizerConfig()), " ")

	count := 0
	if c.patterns.strong.MatchString(strongText) {
		count++
	}
	if c.patterns.weak.MatchString(weakText) {
		count++
	}
	return count
}

// Segments returns the segmentation produced by the last scoring call, a
// read-only diagnostic view of the preprocessed input.
func (c *Checker) Segments() []string {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]string{}, c.lastSegments...)
}

// Notices returns the advisories produced by the last scoring call.
func (c *Checker) Notices() []Notice {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return append([]Notice{}, c.lastNotices...)
}

// SetModel swaps the vectorizer and classifier pair, used for live retraining
// when sample files change.
func (c *Checker) SetModel(vectorizer Vectorizer, classifier Classifier) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.vectorizer = vectorizer
	c.classifier = classifier
}
