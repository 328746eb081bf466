// internal/autofill/classifier.go
package autofill

import "strings"

// FillThreshold is the minimum combined score (keyword plus input type bonus)
// a control needs before a value is typed into it.
const FillThreshold = 3

type keywordSet struct {
	key      string
	keywords []string
}

// fieldKeywords is scanned in order; on equal scores the earlier key wins, so
// the order is part of the matching behavior.
var fieldKeywords = []keywordSet{
	{"email", []string{"email", "e-mail", "your email", "mail"}},
	{"first_name", []string{"first", "given", "forename"}},
	{"last_name", []string{"last", "surname", "family"}},
	{"phone", []string{"phone", "tel", "mobile", "contact"}},
	{"address", []string{"address", "addr", "street"}},
	{"city", []string{"city", "town"}},
	{"postcode", []string{"post", "zip", "postcode", "postal"}},
	{"comments", []string{"comment", "message", "tell us", "why", "entry"}},
	{"name", []string{"name", "full name"}},
}

// inputTypePriority lists the declared input types that earn a bonus, most valuable first.
var inputTypePriority = []string{"email", "tel", "text", "search", "url"}

// Classify maps label text to the semantic key with the highest keyword score.
// A keyword contained in the label scores its length, plus 2 when the label
// starts with it. Only a strictly higher score replaces the current best.
// Blank labels yield ("", 0).
func Classify(label string) (string, int) {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return "", 0
	}

	bestKey, bestScore := "", 0
	for _, set := range fieldKeywords {
		for _, keyword := range set.keywords {
			if !strings.Contains(label, keyword) {
				continue
			}
			score := len(keyword)
			if strings.HasPrefix(label, keyword) {
				score += 2
			}
			if score > bestScore {
				bestKey, bestScore = set.key, score
			}
		}
	}
	return bestKey, bestScore
}

// InputTypeBonus returns the score bonus for a declared input type; 0 for
// types outside the priority table.
func InputTypeBonus(inputType string) int {
	inputType = strings.ToLower(inputType)
	for i, t := range inputTypePriority {
		if t == inputType {
			return len(inputTypePriority) - i
		}
	}
	return 0
}

// kindThresholds overrides FillThreshold per structural kind.
var kindThresholds = map[string]int{
	"select": 3,
}

// Fillable reports whether a control with the given tag and combined score may be filled.
func Fillable(tag string, score int) bool {
	threshold, ok := kindThresholds[strings.ToLower(tag)]
	if !ok {
		threshold = FillThreshold
	}
	return score >= threshold
}

// Keys returns the semantic keys the classifier can produce, in table order.
func Keys() []string {
	keys := make([]string, len(fieldKeywords))
	for i, set := range fieldKeywords {
		keys[i] = set.key
	}
	return keys
}
