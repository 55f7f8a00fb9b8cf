// Package checkswear detects profanity in informal russian text. The primary
// type is the Checker, which scores a text (or a list of pre-segmented texts)
// and returns per-segment probabilities or 0/1 labels.
//
// The scoring pipeline has three cooperating parts:
//
//   - Tokenize normalizes raw chat text: lowercasing, look-alike
//     transliteration, long-run collapsing, alphabetic filtering, stopword and
//     unigram removal, snowball stemming. The same pipeline runs in several
//     configurations depending on the consumer.
//
//   - A single text can be split into a configured number of bins, each bin
//     scored independently so a long message localizes where the profanity is.
//
//   - A seed lexicon of pre-stemmed flagged stems (optionally extended with
//     user stop words) compiles into a strong pattern (substring match over the
//     concatenated token stream) and a weak pattern (whole-word match over the
//     space-joined tokens). Pattern hits boost the classifier probability with
//     p' = (p + 0.5*hits) / (1 + 0.5*hits), so a clean classifier verdict is
//     left untouched and a double hit pulls the score close to certain.
//
// The classifier and vectorizer are injected collaborators behind narrow
// interfaces. A trainable naive bayes substitute is bundled, fitted from
// profane/clean sample corpora with TrainModel.
//
// The Checker is thread-safe. Lexicon patterns are built once per instance on
// the first scoring call, mutating StopWords afterwards has no effect.
package checkswear
