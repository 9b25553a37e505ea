package repositories

import (
	"strings"
	"unicode"
)

// summaryStopwords are tokens that carry no topical signal in the questions
// the summary cache keys on. English function words plus the Korean particles
// and question stems that survive whitespace tokenisation.
var summaryStopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "of": {}, "in": {}, "on": {}, "for": {},
	"to": {}, "by": {}, "with": {}, "and": {}, "or": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "what": {}, "which": {}, "who": {},
	"how": {}, "many": {}, "much": {}, "our": {}, "we": {}, "do": {},
	"does": {}, "have": {}, "has": {}, "there": {}, "about": {}, "per": {},
	"show": {}, "me": {}, "all": {}, "list": {}, "give": {}, "tell": {},
	"조직": {}, "조직의": {}, "우리": {}, "회사": {}, "전체": {}, "몇": {}, "명": {},
	"무엇": {}, "어떤": {}, "어디": {}, "누가": {}, "알려줘": {}, "보여줘": {},
	"있어": {}, "있나요": {}, "인가요": {}, "은": {}, "는": {}, "이": {},
	"가": {}, "을": {}, "를": {}, "에": {}, "의": {},
}

// ExtractKeywords tokenises a question into lowercased, stopword-free
// keywords for summary-cache matching. Tokens shorter than two runes are
// dropped.
func ExtractKeywords(question string) []string {
	fields := strings.FieldsFunc(question, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]struct{}, len(fields))
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		token := foldKeyword(field)
		if len([]rune(token)) < 2 {
			continue
		}
		if _, stop := summaryStopwords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}
	return keywords
}

func foldKeyword(keyword string) string {
	return strings.ToLower(strings.TrimSpace(keyword))
}
