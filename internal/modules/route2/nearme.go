package route2

import "strings"

// nearMePatterns are deterministic, multi-language substrings for "near
// me" style queries. Matching is done over the original query, never an
// LLM call, so this guard does not depend on any model output.
var nearMePatterns = []string{
	"near me", "nearby", "close to me", "around me", "around here", "close by",
	"לידי", "קרוב אלי", "בסביבה", "ליד",
}

// detectNearMe reports whether query matches a known near-me pattern.
func detectNearMe(query string) bool {
	lower := strings.ToLower(query)
	for _, p := range nearMePatterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
