// Package budget estimates the token cost of embedding requests. Providers
// use different tokenizers, so the estimate is a character heuristic:
// 1 token ≈ 4 characters of English prose or code.
package budget

import "unicode/utf8"

const (
	// charsPerToken is the character-to-token ratio used for estimation.
	charsPerToken = 4

	// MaxInputTokens is the per-input limit of the OpenAI embedding models.
	// Inputs estimated above it are likely to be rejected by the provider.
	MaxInputTokens = 8191
)

// Estimate returns a rough token count for s.
func Estimate(s string) int {
	n := utf8.RuneCountInString(s) / charsPerToken
	if n == 0 && s != "" {
		return 1
	}
	return n
}

// EstimateTexts returns the estimated total for texts and the index of the
// largest input.
func EstimateTexts(texts []string) (total, largest int) {
	most := -1
	for i, t := range texts {
		n := Estimate(t)
		total += n
		if n > most {
			most, largest = n, i
		}
	}
	return total, largest
}

// Exceeds reports whether any input is estimated above MaxInputTokens.
func Exceeds(texts []string) bool {
	if len(texts) == 0 {
		return false
	}
	_, i := EstimateTexts(texts)
	return Estimate(texts[i]) > MaxInputTokens
}
