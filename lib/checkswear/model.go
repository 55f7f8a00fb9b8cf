package checkswear

// Vectorizer maps model-ready texts to numeric feature vectors, one row per
// input string. The feature space has to be consistent with the classifier's
// training.
type Vectorizer interface {
	Transform(texts []string) [][]float64
}

// Classifier maps feature vectors to class probabilities, [negative,
// positive] per row. The checker uses only the positive column.
type Classifier interface {
	PredictProba(features [][]float64) [][2]float64
}
