package notes

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

const excerptLength = 200

var (
	htmlStart    = regexp.MustCompile(`^\s*<[a-zA-Z!/]`)
	tagPattern   = regexp.MustCompile(`<[^>]+>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Excerpter derives plain-text excerpts from rich text. Content that starts
// with a tag is editor HTML and only has its tags stripped; anything else is
// markdown, rendered by goldmark first.
type Excerpter struct {
	md goldmark.Markdown
}

func NewExcerpter() *Excerpter {
	return &Excerpter{
		md: goldmark.New(goldmark.WithRendererOptions(gmhtml.WithUnsafe())),
	}
}

// PlainText renders content and strips markup, collapsing whitespace.
func (e *Excerpter) PlainText(content string) string {
	rendered := content
	if !htmlStart.MatchString(content) {
		var buf bytes.Buffer
		if err := e.md.Convert([]byte(content), &buf); err == nil {
			rendered = buf.String()
		}
	}
	text := html.UnescapeString(tagPattern.ReplaceAllString(rendered, " "))
	return strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
}

// Excerpt is the first 200 characters of the plain text of content.
func (e *Excerpter) Excerpt(content string) string {
	runes := []rune(e.PlainText(content))
	if len(runes) > excerptLength {
		runes = runes[:excerptLength]
	}
	return string(runes)
}
