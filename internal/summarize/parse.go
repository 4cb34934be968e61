package summarize

import (
	"fmt"
	"strings"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/locale"
)

// markdownDecoration is emphasis, heading and quote markup models wrap labels in.
const markdownDecoration = "*_#> \t"

// Parse reads the two labelled lines from a model response. Labels match
// regardless of case and markdown decoration, and the colon may be full-width
// or ASCII regardless of the locale.
func Parse(loc locale.Locale, response string) (clip.SummaryResult, error) {
	summaryLabel := labelBase(loc.SummaryLabel)
	tagLabel := labelBase(loc.TagsLabel)

	var summary, tagLine string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := cutLabel(line, summaryLabel); ok && summary == "" {
			summary = rest
			continue
		}
		if rest, ok := cutLabel(line, tagLabel); ok && tagLine == "" {
			tagLine = rest
		}
	}

	tags := splitTags(tagLine, loc)
	if summary == "" || len(tags) == 0 {
		return clip.SummaryResult{}, fmt.Errorf("%w: summary=%t tags=%d", clip.ErrFormat, summary != "", len(tags))
	}
	return clip.SummaryResult{Summary: summary, Tags: tags}, nil
}

func splitTags(line string, loc locale.Locale) []string {
	if line == "" {
		return nil
	}
	for _, sep := range loc.AltSeparators {
		if sep != "" {
			line = strings.ReplaceAll(line, sep, loc.TagSeparator)
		}
	}
	var tags []string
	for _, tag := range strings.Split(line, loc.TagSeparator) {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func labelBase(label string) string {
	return strings.TrimRight(strings.TrimSpace(label), ":：")
}

// cutLabel matches "label:" at the start of line, ignoring case and markdown
// around the label, and returns the trimmed remainder.
func cutLabel(line, label string) (string, bool) {
	if label == "" {
		return "", false
	}
	s := strings.TrimLeft(line, markdownDecoration)
	if len(s) < len(label) || !strings.EqualFold(s[:len(label)], label) {
		return "", false
	}
	s = strings.TrimLeft(s[len(label):], markdownDecoration)
	for _, colon := range []string{":", "："} {
		if rest, ok := strings.CutPrefix(s, colon); ok {
			return strings.TrimSpace(strings.TrimLeft(rest, markdownDecoration)), true
		}
	}
	return "", false
}
