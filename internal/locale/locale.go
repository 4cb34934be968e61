// Package locale holds the per-language prompt, labels and message texts.
package locale

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Placeholders substituted into templates.
const (
	PlaceholderContent      = "{{.content}}"
	PlaceholderSummaryLabel = "{{.summary_label}}"
	PlaceholderTagsLabel    = "{{.tags_label}}"
	PlaceholderSeparator    = "{{.separator}}"
)

// Locale is one language pack.
type Locale struct {
	Code           string `yaml:"code"`
	PromptTemplate string `yaml:"prompt_template"`
	SummaryLabel   string `yaml:"summary_label"`
	TagsLabel      string `yaml:"tags_label"`
	TagSeparator   string `yaml:"tag_separator"`
	// AltSeparators are also accepted when parsing model output.
	AltSeparators    []string `yaml:"alt_separators"`
	UntitledTitle    string   `yaml:"untitled_title"`
	DefaultSummary   string   `yaml:"default_summary"`
	UncategorizedTag string   `yaml:"uncategorized_tag"`
	Messages         Messages `yaml:"messages"`
}

// Messages are notification templates. Placeholders use {name} syntax.
type Messages struct {
	// Completed receives {title} {summary} {original_url} {snapshot_url} {note_url}.
	Completed string `yaml:"completed"`
	// Failed receives {error}.
	Failed string `yaml:"failed"`
	// SummarizerDegraded receives {error}.
	SummarizerDegraded string `yaml:"summarizer_degraded"`
	// NoteDegraded receives {error}.
	NoteDegraded string `yaml:"note_degraded"`
}

// English is the default pack.
var English = Locale{
	Code: "en",
	PromptTemplate: `Write a short summary and relevant tags for the following web page content.

Requirements:
1. Reply in English regardless of the language of the page
2. Keep the summary under 100 characters
3. Generate 3-5 English tags
4. Return exactly this format:

{{.summary_label}}[summary under 100 characters]
{{.tags_label}}tag1{{.separator}}tag2{{.separator}}tag3{{.separator}}tag4{{.separator}}tag5

Web page content:
{{.content}}`,
	SummaryLabel:     "Summary:",
	TagsLabel:        "Tags:",
	TagSeparator:     ", ",
	AltSeparators:    []string{",", ";"},
	UntitledTitle:    "unknown title",
	DefaultSummary:   "Unable to generate summary",
	UncategorizedTag: "uncategorized",
	Messages: Messages{
		Completed: "✨ New web clip\n\n📑 {title}\n\n📝 {summary}\n\n" +
			"🔗 Original: {original_url}\n📚 Snapshot: {snapshot_url}\n📚 Note: {note_url}",
		Failed:             "❌ Processing failed: {error}",
		SummarizerDegraded: "⚠️ AI service alert\n\nError: {error}",
		NoteDegraded:       "❌ Note save failed: {error}",
	},
}

// Chinese mirrors the labels the clipper originally shipped with.
var Chinese = Locale{
	Code: "zh",
	PromptTemplate: `请为以下网页内容生成简短摘要和相关标签。

要求：
1. 无论原文是中文还是英文，都必须用中文回复
2. 摘要控制在100字以内
3. 生成3-5个中文标签
4. 严格按照以下格式返回：

{{.summary_label}}[100字以内的中文摘要]
{{.tags_label}}tag1{{.separator}}tag2{{.separator}}tag3{{.separator}}tag4{{.separator}}tag5

网页内容：
{{.content}}`,
	SummaryLabel:     "摘要：",
	TagsLabel:        "标签：",
	TagSeparator:     "，",
	AltSeparators:    []string{",", "、"},
	UntitledTitle:    "未知标题",
	DefaultSummary:   "无法生成摘要",
	UncategorizedTag: "未分类",
	Messages: Messages{
		Completed: "✨ 新的网页剪藏\n\n📑 {title}\n\n📝 {summary}\n\n" +
			"🔗 原始链接：{original_url}\n📚 快照链接：{snapshot_url}\n📚 Notion笔记: {note_url}",
		Failed:             "❌ 处理失败: {error}",
		SummarizerDegraded: "⚠️ AI 服务失效提醒\n\n错误信息：{error}",
		NoteDegraded:       "❌ Notion 保存失败: {error}",
	},
}

// Registry resolves locale codes.
type Registry struct {
	locales map[string]Locale
}

// NewRegistry returns a registry with the built-in packs.
func NewRegistry() *Registry {
	return &Registry{locales: map[string]Locale{
		English.Code: English,
		Chinese.Code: Chinese,
	}}
}

// Lookup returns the locale for code.
func (r *Registry) Lookup(code string) (Locale, error) {
	l, ok := r.locales[normalize(code)]
	if !ok {
		return Locale{}, fmt.Errorf("unknown locale %q", code)
	}
	return l, nil
}

// LoadFile adds packs from a YAML file holding a list of locales. Missing
// fields inherit from English so a pack can override only what it needs.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return fmt.Errorf("read locale file: %w", err)
	}
	var packs []Locale
	if err := yaml.Unmarshal(data, &packs); err != nil {
		return fmt.Errorf("parse locale file: %w", err)
	}
	for i, p := range packs {
		if normalize(p.Code) == "" {
			return fmt.Errorf("locale %d: code is required", i)
		}
		merged := p.withDefaults(English)
		if err := merged.Validate(); err != nil {
			return fmt.Errorf("locale %s: %w", p.Code, err)
		}
		r.locales[merged.Code] = merged
	}
	return nil
}

// Validate checks that the prompt can be parsed back.
func (l Locale) Validate() error {
	if !strings.Contains(l.PromptTemplate, PlaceholderContent) {
		return fmt.Errorf("prompt template must contain %s", PlaceholderContent)
	}
	if strings.TrimSpace(l.SummaryLabel) == "" || strings.TrimSpace(l.TagsLabel) == "" {
		return fmt.Errorf("summary and tags labels are required")
	}
	if l.TagSeparator == "" {
		return fmt.Errorf("tag separator is required")
	}
	if strings.TrimSpace(l.UncategorizedTag) == "" {
		return fmt.Errorf("uncategorized tag is required")
	}
	return nil
}

func (l Locale) withDefaults(base Locale) Locale {
	l.Code = normalize(l.Code)
	pick := func(v, fallback string) string {
		if v == "" {
			return fallback
		}
		return v
	}
	l.PromptTemplate = pick(l.PromptTemplate, base.PromptTemplate)
	l.SummaryLabel = pick(l.SummaryLabel, base.SummaryLabel)
	l.TagsLabel = pick(l.TagsLabel, base.TagsLabel)
	l.TagSeparator = pick(l.TagSeparator, base.TagSeparator)
	l.UntitledTitle = pick(l.UntitledTitle, base.UntitledTitle)
	l.DefaultSummary = pick(l.DefaultSummary, base.DefaultSummary)
	l.UncategorizedTag = pick(l.UncategorizedTag, base.UncategorizedTag)
	l.Messages.Completed = pick(l.Messages.Completed, base.Messages.Completed)
	l.Messages.Failed = pick(l.Messages.Failed, base.Messages.Failed)
	l.Messages.SummarizerDegraded = pick(l.Messages.SummarizerDegraded, base.Messages.SummarizerDegraded)
	l.Messages.NoteDegraded = pick(l.Messages.NoteDegraded, base.Messages.NoteDegraded)
	return l
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Render substitutes {name} placeholders in a message template.
func Render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
