// Package sanitize strips content that must not be trusted from imported text.
package sanitize

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/starford/glossaryqf/internal/models"
)

// TrustMarker flags text as trusted in the host bank. Imported text must never
// carry it, otherwise the importer could elevate its own content.
const TrustMarker = "#####TRUSTTEXT#####"

// StripUntrusted removes every trust marker, repeating until nothing changes so
// that markers split around an inner marker cannot reassemble.
func StripUntrusted(text string) string {
	for {
		next := strings.ReplaceAll(text, TrustMarker, "")
		if next == text {
			return text
		}
		text = next
	}
}

// Policy decides how definitions are cleaned on import.
type Policy struct {
	// CleanHTML drops active content from HTML definitions.
	CleanHTML bool
	// HTMLToMarkdown converts HTML definitions to Markdown.
	HTMLToMarkdown bool
}

// Definition applies the policy to a definition written in format f and
// returns the cleaned text together with its (possibly changed) format.
func (p Policy) Definition(text string, f models.TextFormat) (string, models.TextFormat, error) {
	text = StripUntrusted(text)
	if f != models.FormatHTML {
		return text, f, nil
	}
	if p.CleanHTML || p.HTMLToMarkdown {
		cleaned, err := CleanHTML(text)
		if err != nil {
			return "", f, err
		}
		text = cleaned
	}
	if p.HTMLToMarkdown {
		md, err := ToMarkdown(text)
		if err != nil {
			return "", f, err
		}
		return md, models.FormatMarkdown, nil
	}
	return text, f, nil
}

var droppedElements = map[atom.Atom]bool{
	atom.Script: true,
	atom.Style:  true,
	atom.Iframe: true,
	atom.Object: true,
	atom.Embed:  true,
	atom.Frame:  true,
	atom.Form:   true,
}

// CleanHTML parses an HTML fragment, removes scripting elements, event
// handler attributes and javascript: URLs, and renders the rest back.
func CleanHTML(fragment string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", fmt.Errorf("sanitize: parse html: %w", err)
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if dropNode(n) {
			continue
		}
		cleanNode(n)
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("sanitize: render html: %w", err)
		}
	}
	return buf.String(), nil
}

func dropNode(n *html.Node) bool {
	return n.Type == html.ElementNode && droppedElements[n.DataAtom]
}

func cleanNode(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") &&
				strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if dropNode(c) {
			n.RemoveChild(c)
		} else {
			cleanNode(c)
		}
		c = next
	}
}

// ToMarkdown converts an HTML fragment to Markdown.
func ToMarkdown(fragment string) (string, error) {
	md, err := htmltomarkdown.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("sanitize: html to markdown: %w", err)
	}
	return md, nil
}
