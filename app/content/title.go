package content

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// UntitledPlaceholder is stored in place of a title that normalizes to nothing.
const UntitledPlaceholder = "عنوان غير متوفر"

var (
	titleNoisePattern = regexp.MustCompile(`(?i)\s*\(\d{4}\)|\s*\[.*?\]|\s*مترجم|\s*اون لاين|\s*\bonline\b|\s*\bHD\b|\s*\bWEB-DL\b|\s*\bBluRay\b|\s*نسخة مدبلجة|\s*كاملة|\s*كامل|\s*جودة عالية|\s*مباشر|\s*مشاهدة|\s*تحميل|\s*سيرفرات|\s*سيرفر|\s*فيلم|\s*مسلسل|\s*انمي`)

	// Anything that is not a letter, digit, mark, underscore, space or in the Arabic block.
	titleSymbolPattern = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s\x{0600}-\x{06FF}]+`)
)

// NormalizeTitle strips year annotations, promotional and quality tokens and
// punctuation from a raw listing title. It never fails; a title made only of
// noise yields "".
func NormalizeTitle(raw string) string {
	title := norm.NFKC.String(raw)
	title = titleNoisePattern.ReplaceAllString(title, "")
	title = titleSymbolPattern.ReplaceAllString(title, "")
	return CollapseSpaces(title)
}

// TitleOrPlaceholder normalizes raw and substitutes UntitledPlaceholder for an empty result.
func TitleOrPlaceholder(raw string) string {
	if title := NormalizeTitle(raw); title != "" {
		return title
	}
	return UntitledPlaceholder
}

// CollapseSpaces replaces every whitespace run with a single space and trims the ends.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
