package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"

	"github.com/JakeFAU/webclipper/internal/clip"
)

// headingFallbacks are consulted level by level after <title> and <h1>.
var headingFallbacks = []string{"h2", "h3", "h4", "h5", "h6"}

type converter struct {
	md *md.Converter
}

// newConverter drops links (keeping their text) and images.
func newConverter() *converter {
	conv := md.NewConverter("", true, nil)
	conv.Remove("head", "script", "style", "noscript", "img", "picture", "svg", "iframe")
	conv.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})
	return &converter{md: conv}
}

func (c *converter) convert(html string) (string, error) {
	out, err := c.md.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert html to markdown: %w", err)
	}
	return strings.TrimSpace(out), nil
}

func (e *Extractor) parseHTML(body []byte, pageURL *url.URL) (clip.ExtractedContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return clip.ExtractedContent{}, fmt.Errorf("parse html: %w", err)
	}
	title := resolveTitle(doc)
	if title == "" {
		title = e.cfg.UntitledTitle
	}

	source := string(body)
	if e.cfg.UseReadability {
		if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil && strings.TrimSpace(article.Content) != "" {
			source = article.Content
		} else if err != nil {
			e.logger.Debug("readability failed, converting whole page", zap.Error(err))
		}
	}
	text, err := e.converter.convert(source)
	if err != nil {
		return clip.ExtractedContent{}, err
	}
	return clip.ExtractedContent{Title: title, Body: text, Source: clip.SourceHTML}, nil
}

// resolveTitle picks <title>, then <h1>, then the first heading of the highest
// remaining level. Blank candidates are skipped.
func resolveTitle(doc *goquery.Document) string {
	candidates := append([]string{"title", "h1"}, headingFallbacks...)
	for _, tag := range candidates {
		if t := collapseSpace(doc.Find(tag).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
