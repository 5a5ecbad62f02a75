package harvest

import (
	"regexp"
	"strings"

	"github.com/lysyi3m/cima-comb/app/content"
	"golang.org/x/text/cases"
)

const (
	MaxDescriptionLength = 500

	minMetaDescription   = 100
	minSelectorText      = 50
	maxSelectorText      = 5000
	boilerplateMetaMatch = "مشاهدة وتحميل"
)

// promoPatterns are applied in order; later patterns see the output of earlier ones.
var promoPatterns = compileAll(
	`مشاهدة وتحميل (فيلم|مسلسل|انمي)?\s*`,
	`مشاهدة (فيلم|مسلسل|انمي)?\s*`,
	`تحميل مباشر\s*`,
	`تنزيل مباشر\s*`,
	`حصريا\s*`,
	`فقط\s*`,
	`اون لاين\s*`,
	`مباشرة\s*`,
	`روابط سريعة\s*`,
	`بجودة\s*(?:HD|FHD|4K|720p|1080p|BluRay|WEB-DL|HDRip|DVDRip|BDRip|WEBRip)?\s*`,
	`كامل ومترجم\s*`,
	`مترجم للعربية\s*`,
	`مدبلج\s*`,
	`بدون إعلانات\s*`,
	`شاهد مجانا\s*`,
	`مجاناً\s*`,
	`جميع حلقات\s*`,
	`الموسم (?:الاول|الأول|الثاني|الثالث|الرابع|الخامس|السادس|السابع|الثامن|التاسع|العاشر|\d+)\s*`,
	`ايجي بست\s*`,
	`وي سيما\s*`,
	`ماي سيما\s*`,
	`سيما كلوب\s*`,
	`تكتوك سيما\s*`,
	`اكوام\s*`,
	`شاهد فور يو\s*`,
	`افلامكو\s*`,
	`سيما فور يو\s*`,
	`فوشار\s*`,
	`افلام\s*`,
	`موقع [أ-ي\w\s]*?\s*`,
	`قصة (فيلم|مسلسل|انمي)\s*(?:جديد)?\s*(?:تدور احداث)?\s*(?:حول)?\s*`,
	`تدور احداث (الفيلم|المسلسل|الانمي)?\s*(?:حول)?\s*`,
	`احداث (الفيلم|المسلسل|الانمي)?\s*(?:حول)?\s*`,
	`ملخص القصة\s*(?:حول)?\s*`,
	`تبدأ الاحداث عندما\s*`,
	`فيلم (جديد|حصري|الأن)?\s*`,
	`مسلسل (جديد|حصري|الأن)?\s*`,
	`انمي (جديد|حصري|الأن)?\s*`,
	`أفلام202[0-9]|مسلسلات202[0-9]|أنمي202[0-9]`,
	`اونلاين`,
)

var (
	leadingNoise  = regexp.MustCompile(`^[^\p{L}\p{N}\p{M}_\s\x{0600}-\x{06FF}]+`)
	trailingNoise = regexp.MustCompile(`[^\p{L}\p{N}\p{M}_\s\x{0600}-\x{06FF}]+$`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?is)` + p)
	}
	return compiled
}

// CleanDescription strips promotional phrases, edge punctuation and a leading
// repeat of title, then truncates to MaxDescriptionLength runes.
func CleanDescription(text, title string) string {
	for _, pattern := range promoPatterns {
		text = strings.TrimSpace(pattern.ReplaceAllString(text, ""))
	}

	text = stripEdges(text)

	if title != "" {
		if rest, ok := cutFoldedPrefix(text, title); ok {
			text = strings.TrimSpace(leadingNoise.ReplaceAllString(strings.TrimSpace(rest), ""))
		}
	}

	text = content.CollapseSpaces(text)
	return content.Truncate(text, MaxDescriptionLength)
}

func stripEdges(text string) string {
	text = strings.TrimSpace(leadingNoise.ReplaceAllString(text, ""))
	return strings.TrimSpace(trailingNoise.ReplaceAllString(text, ""))
}

// cutFoldedPrefix reports whether text starts with prefix under case folding and
// returns the remainder of text.
func cutFoldedPrefix(text, prefix string) (string, bool) {
	foldCaser := cases.Fold()
	foldedPrefix := foldCaser.String(prefix)
	runes := []rune(text)
	for end := 1; end <= len(runes); end++ {
		folded := foldCaser.String(string(runes[:end]))
		if folded == foldedPrefix {
			return string(runes[end:]), true
		}
		if len(folded) > len(foldedPrefix) || !strings.HasPrefix(foldedPrefix, folded) {
			return "", false
		}
	}
	return "", false
}
