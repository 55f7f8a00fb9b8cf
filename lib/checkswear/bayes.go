package checkswear

import (
	"math"
	"strings"
)

// based on the code from https://github.com/RadhiFadlillah/go-bayesian/blob/master/classifier.go

// CountVectorizer maps texts to term-count vectors over a vocabulary fixed at
// construction. Terms outside the vocabulary are dropped.
type CountVectorizer struct {
	vocab map[string]int
}

// NewCountVectorizer builds the vocabulary from training texts, each text a
// whitespace-joined token string.
func NewCountVectorizer(texts []string) *CountVectorizer {
	vocab := make(map[string]int)
	for _, t := range texts {
		for _, tok := range strings.Fields(t) {
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
		}
	}
	return &CountVectorizer{vocab: vocab}
}

// Transform produces one term-count vector per input text.
func (v *CountVectorizer) Transform(texts []string) [][]float64 {
	res := make([][]float64, len(texts))
	for i, t := range texts {
		vec := make([]float64, len(v.vocab))
		for _, tok := range strings.Fields(t) {
			if idx, ok := v.vocab[tok]; ok {
				vec[idx]++
			}
		}
		res[i] = vec
	}
	return res
}

// BayesClassifier is a two-class multinomial naive bayes over count vectors,
// laplace-smoothed, accumulated in log space.
type BayesClassifier struct {
	logPrior      [2]float64
	logLikelihood [][2]float64 // per feature, per class
}

// TrainBayes fits the classifier on feature vectors with labels 0 (clean) and
// 1 (profane).
func TrainBayes(features [][]float64, labels []int) *BayesClassifier {
	nFeatures := 0
	if len(features) > 0 {
		nFeatures = len(features[0])
	}

	var nDocs [2]float64
	var totalCount [2]float64
	counts := make([][2]float64, nFeatures)
	for i, vec := range features {
		class := labels[i]
		nDocs[class]++
		for f, cnt := range vec {
			counts[f][class] += cnt
			totalCount[class] += cnt
		}
	}

	c := &BayesClassifier{logLikelihood: make([][2]float64, nFeatures)}
	nAll := nDocs[0] + nDocs[1]
	for class := 0; class < 2; class++ {
		if nAll == 0 {
			c.logPrior[class] = math.Log(0.5) // untrained, both classes equally likely
			continue
		}
		if nDocs[class] == 0 {
			c.logPrior[class] = math.Inf(-1)
			continue
		}
		c.logPrior[class] = math.Log(nDocs[class] / nAll)
		denom := totalCount[class] + float64(nFeatures)
		for f := 0; f < nFeatures; f++ {
			c.logLikelihood[f][class] = math.Log((counts[f][class] + 1) / denom)
		}
	}
	return c
}

// PredictProba returns [negative, positive] probabilities per feature vector.
func (c *BayesClassifier) PredictProba(features [][]float64) [][2]float64 {
	res := make([][2]float64, len(features))
	for i, vec := range features {
		var logProbs [2]float64
		for class := 0; class < 2; class++ {
			logProbs[class] = c.logPrior[class]
			for f, cnt := range vec {
				if cnt == 0 || f >= len(c.logLikelihood) {
					continue
				}
				logProbs[class] += cnt * c.logLikelihood[f][class]
			}
		}
		res[i] = softmax(logProbs)
	}
	return res
}

// softmax converts log probabilities to normalized probabilities.
func softmax(logProbs [2]float64) [2]float64 {
	// subtract the max for numeric stability before exponentiation
	m := math.Max(logProbs[0], logProbs[1])
	e0 := math.Exp(logProbs[0] - m)
	e1 := math.Exp(logProbs[1] - m)
	sum := e0 + e1
	return [2]float64{e0 / sum, e1 / sum}
}

// TrainModel tokenizes both corpora with the given config and returns a
// fitted vectorizer and classifier pair ready for a Checker.
func TrainModel(profane, clean []string, cfg TokenizerConfig) (*CountVectorizer, *BayesClassifier) {
	prep := func(samples []string) []string {
		res := make([]string, len(samples))
		for i, s := range samples {
			res[i] = strings.Join(Tokenize(s, cfg), " ")
		}
		return res
	}

	profaneTexts, cleanTexts := prep(profane), prep(clean)
	texts := append(append([]string{}, profaneTexts...), cleanTexts...)
	labels := make([]int, len(texts))
	for i := range profaneTexts {
		labels[i] = 1
	}

	v := NewCountVectorizer(texts)
	return v, TrainBayes(v.Transform(texts), labels)
}
