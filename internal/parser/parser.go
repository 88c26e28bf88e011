package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Title returns the trimmed text of the first <title> element
func Title(htmlContent string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(doc.Find("title").First().Text()), nil
}

// CountElements counts the elements with the given tag name, the same set a
// driver returns for a tag-name lookup
func CountElements(htmlContent, tag string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return 0, err
	}

	return doc.Find(tag).Length(), nil
}
