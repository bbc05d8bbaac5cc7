package metadata

import (
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// FlattenDescription turns a possibly-HTML description into readable
// markdown text. Plain text passes through unchanged.
func FlattenDescription(desc string) string {
	if !strings.ContainsAny(desc, "<>") {
		return strings.TrimSpace(desc)
	}

	cleaned, err := cleanHTML(desc)
	if err != nil {
		return strings.TrimSpace(desc)
	}

	converter := md.NewConverter("", true, nil)
	mdStr, err := converter.ConvertString(cleaned)
	if err != nil {
		return strings.TrimSpace(desc)
	}
	return strings.TrimSpace(mdStr)
}

// cleanHTML removes unwanted elements and attributes before conversion.
func cleanHTML(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	// Remove unwanted tags
	doc.Find("script, style, link, meta, noscript, iframe, svg, form, input, button, select, textarea, canvas").Remove()

	// Clean attributes
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		if len(s.Nodes) == 0 {
			return
		}
		node := s.Nodes[0]
		var newAttrs []html.Attribute
		for _, attr := range node.Attr {
			keep := false
			switch node.Data {
			case "a":
				if attr.Key == "href" || attr.Key == "title" {
					keep = true
				}
			case "img":
				if attr.Key == "src" || attr.Key == "alt" {
					keep = true
				}
			}
			if keep {
				newAttrs = append(newAttrs, attr)
			}
		}
		node.Attr = newAttrs
	})

	htmlStr, err := doc.Html()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(htmlStr), nil
}
