package vectorizer

import (
	"strings"
)

// Punctuation is the set of characters deleted from a document before tokenizing.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var punctuationRemover = strings.NewReplacer(punctuationPairs()...)

func punctuationPairs() []string {
	pairs := make([]string, 0, 2*len(Punctuation))
	for _, r := range Punctuation {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}

// Clean deletes every punctuation character from doc. Neighbouring characters
// are joined, so "don't" becomes "dont".
func Clean(doc string) string {
	return punctuationRemover.Replace(doc)
}

// Tokenize cleans doc and splits it on runs of whitespace
func Tokenize(doc string, lowercase bool) []string {
	cleaned := Clean(doc)
	if lowercase {
		cleaned = strings.ToLower(cleaned)
	}
	return strings.Fields(cleaned)
}

// TokenizeCorpus tokenizes every document, keeping corpus order
func TokenizeCorpus(corpus []string, lowercase bool) [][]string {
	docs := make([][]string, len(corpus))
	for i, doc := range corpus {
		docs[i] = Tokenize(doc, lowercase)
	}
	return docs
}
