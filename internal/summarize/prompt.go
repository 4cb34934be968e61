package summarize

import (
	"strings"

	"github.com/JakeFAU/webclipper/internal/locale"
)

// DefaultMaxContentRunes is how much page text is sent to the model.
const DefaultMaxContentRunes = 5000

// BuildPrompt fills the locale template with the first maxRunes runes of body
// followed by "...".
func BuildPrompt(loc locale.Locale, body string, maxRunes int) string {
	if maxRunes <= 0 {
		maxRunes = DefaultMaxContentRunes
	}
	content := truncateRunes(body, maxRunes) + "..."
	return strings.NewReplacer(
		locale.PlaceholderSummaryLabel, loc.SummaryLabel,
		locale.PlaceholderTagsLabel, loc.TagsLabel,
		locale.PlaceholderSeparator, loc.TagSeparator,
		locale.PlaceholderContent, content,
	).Replace(loc.PromptTemplate)
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
