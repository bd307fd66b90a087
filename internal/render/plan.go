package render

import "strings"

var planMarkers = []string{"Week 1", "Month 1"}

// LooksLikePlan reports whether a model reply reads as a structured plan worth
// offering as a PDF download.
func LooksLikePlan(reply string) bool {
	for _, m := range planMarkers {
		if strings.Contains(reply, m) {
			return true
		}
	}
	return false
}
