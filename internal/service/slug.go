package service

import (
	"fmt"
	"strings"
	"unicode"
)

// MakeSlug derives the unique URL-safe identifier for a recipe from its dish
// name and assigned id, e.g. ("Tomato Soup", 42) -> "tomato-soup-42". Id
// uniqueness makes collisions impossible.
func MakeSlug(name string, id uint) string {
	return fmt.Sprintf("%s-%d", Slugify(name), id)
}

// Slugify lowercases the name and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteRune('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
