package knowledge

import (
	"sort"
	"strings"
	"unicode"
)

// single letters carry no signal; two-letter words like "go" or "ai" do
const minTermLength = 2

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "was": {}, "what": {}, "who": {},
	"how": {}, "why": {}, "when": {}, "where": {}, "which": {}, "this": {}, "that": {},
	"with": {}, "from": {}, "about": {}, "does": {}, "can": {}, "you": {}, "your": {},
	"tell": {}, "have": {}, "has": {}, "there": {}, "their": {}, "into": {},
	"is": {}, "it": {}, "me": {}, "do": {}, "to": {}, "of": {}, "an": {}, "in": {},
	"on": {}, "at": {}, "or": {}, "be": {}, "am": {}, "we": {}, "my": {}, "by": {},
}

// Terms splits text into the distinct lower-case words used for matching
func Terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < minTermLength {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// Rank orders docs by the number of query terms they contain, newest first on
// ties, drops docs matching nothing and keeps at most limit.
func Rank(docs []Document, query string, limit int) []Document {
	terms := Terms(query)
	if len(terms) == 0 || limit <= 0 {
		return nil
	}

	type scored struct {
		doc   Document
		score int
	}
	matches := make([]scored, 0, len(docs))
	for _, doc := range docs {
		docTerms := make(map[string]struct{})
		for _, t := range Terms(doc.Content + " " + doc.Source) {
			docTerms[t] = struct{}{}
		}

		score := 0
		for _, t := range terms {
			if _, ok := docTerms[t]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, scored{doc: doc, score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].doc.CreatedAt.After(matches[j].doc.CreatedAt)
	})

	if len(matches) > limit {
		matches = matches[:limit]
	}
	result := make([]Document, len(matches))
	for i, m := range matches {
		result[i] = m.doc
	}
	return result
}
