// Package keyword splits titles into search keywords.
package keyword

import "strings"

var stopWords = map[string]bool{
	"and": true,
	"the": true,
	"was": true,
	"not": true,
}

var punctuation = strings.NewReplacer(":", " ", ",", " ", "'", " ")

// Words returns the keywords of a title: words longer than two characters
// that are not stop words, lowercased, in title order.
func Words(title string) []string {
	var words []string
	for _, w := range strings.Fields(punctuation.Replace(title)) {
		w = strings.ToLower(w)
		if len(w) > 2 && !stopWords[w] {
			words = append(words, w)
		}
	}
	return words
}

// Match reports whether every keyword of query occurs among the keywords
// of title. A query without keywords matches everything.
func Match(title, query string) bool {
	have := make(map[string]bool)
	for _, w := range Words(title) {
		have[w] = true
	}
	for _, w := range Words(query) {
		if !have[w] {
			return false
		}
	}
	return true
}
