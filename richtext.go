package vertrans

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// RichTextTypes contains field types whose values are HTML markup.
var RichTextTypes = map[string]bool{
	"Text Editor": true,
	"HTML Editor": true,
	"HTML":        true,
}

// IgnoredTags contains HTML tags whose content is not visible text.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
}

// IsRichText reports whether values of fieldType are HTML.
func IsRichText(fieldType string) bool {
	return RichTextTypes[fieldType]
}

// VisibleText returns the text a reader would see in an HTML fragment,
// with runs of whitespace collapsed. Content of ignored tags is skipped.
func VisibleText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && IgnoredTags[strings.ToLower(n.Data)] {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// FieldText converts a raw field value into the text sent for translation.
// It returns "" for values that have nothing to translate, including rich
// text made only of markup such as "<p><br></p>".
func FieldText(fieldType string, value any) string {
	var text string
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		text = v
	case []byte:
		text = string(v)
	case fmt.Stringer:
		text = v.String()
	default:
		text = fmt.Sprint(v)
	}

	if strings.TrimSpace(text) == "" {
		return ""
	}
	if IsRichText(fieldType) && VisibleText(text) == "" {
		return ""
	}
	return text
}
