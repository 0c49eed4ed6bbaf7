package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// slugInvalid matches characters that may not appear in a slug.
	slugInvalid = regexp.MustCompile(`[^a-z0-9-]+`)
	// slugHyphens matches runs of consecutive hyphens.
	slugHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts a title to a URL-safe, lowercase, hyphenated token with
// no leading or trailing punctuation. Accented characters are transliterated
// before cleanup so "Café" becomes "cafe" rather than disappearing.
func Slugify(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)
	result = strings.ReplaceAll(result, " ", "-")
	result = slugInvalid.ReplaceAllString(result, "")
	result = slugHyphens.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// slugWithSuffix disambiguates a taken base slug with the current unix
// timestamp. A single suffix is enough: two writes landing in the same
// millisecond on the same title are stopped by the unique index instead.
func slugWithSuffix(base string) string {
	return fmt.Sprintf("%s-%d", base, time.Now().UnixMilli())
}
