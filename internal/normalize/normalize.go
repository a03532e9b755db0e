// Package normalize cleans scraped text and extracts prices from free-form strings.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	spaceRun   = regexp.MustCompile(`[\s\p{Zs}]+`)
	priceNoise = regexp.MustCompile(`[^\d,.\s\p{Zs}]`)
	// A digit run, optionally continued by further runs separated by exactly one space.
	priceChunk = regexp.MustCompile(`\d[\d.,]*(?:[\s\p{Zs}]\d[\d.,]*)*`)
)

// Text collapses whitespace runs to a single space and trims the ends.
// A nil input yields nil.
func Text(s *string) *string {
	if s == nil {
		return nil
	}
	out := strings.TrimSpace(spaceRun.ReplaceAllString(*s, " "))
	return &out
}

// Price extracts the last numeric group from s and parses it, treating a
// comma as the decimal separator. It returns nil when nothing parses.
func Price(s *string) *float64 {
	if s == nil || *s == "" {
		return nil
	}
	cleaned := priceNoise.ReplaceAllString(*s, "")
	chunks := priceChunk.FindAllString(cleaned, -1)
	if len(chunks) == 0 {
		return nil
	}
	last := strings.Join(strings.Fields(spaceRun.ReplaceAllString(chunks[len(chunks)-1], " ")), "")
	value, err := strconv.ParseFloat(strings.ReplaceAll(last, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &value
}

// Strings normalizes every element and drops the ones left empty.
func Strings(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if n := Text(&v); *n != "" {
			out = append(out, *n)
		}
	}
	return out
}

// Ptr returns a pointer to s; a convenience for building optional fields.
func Ptr(s string) *string {
	return &s
}
