package services

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	md = goldmark.New()

	anyTagRE     = regexp.MustCompile(`<[a-zA-Z][^>]*>`)
	multiSpaceRE = regexp.MustCompile(`[ \t\x{00A0}]+`)
	newlinesRE   = regexp.MustCompile(`\n{3,}`)
	emphasisRepl = strings.NewReplacer("**", "", "__", "")

	fragmentContext = &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
)

// Elemente, die nicht in den Artikel gehören
var droppedElements = map[atom.Atom]bool{
	atom.Head:   true,
	atom.Title:  true,
	atom.Meta:   true,
	atom.Link:   true,
	atom.Style:  true,
	atom.Script: true,
	atom.H1:     true,
}

// Block-Elemente werden beim Textauszug durch Leerraum getrennt.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Br: true, atom.Tr: true, atom.Td: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Ul: true, atom.Ol: true, atom.Blockquote: true, atom.Section: true, atom.Article: true,
}

// renderMarkdown wandelt Markdown in HTML um. Bei Fehlern wird der Text escaped.
func renderMarkdown(text string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "<p>" + html.EscapeString(text) + "</p>"
	}
	return strings.TrimSpace(buf.String())
}

func containsHTML(s string) bool {
	return anyTagRE.MatchString(s)
}

func parseFragment(s string) ([]*html.Node, error) {
	return html.ParseFragment(strings.NewReader(s), fragmentContext)
}

// cleanFragment entfernt Dokument-Hülle, Kopfbereich und <h1> und rendert den Rest.
func cleanFragment(s string) string {
	nodes, err := parseFragment(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if isDropped(n) {
			continue
		}
		pruneElements(n)
		if err := html.Render(&buf, n); err != nil {
			return strings.TrimSpace(s)
		}
	}
	return strings.TrimSpace(newlinesRE.ReplaceAllString(buf.String(), "\n\n"))
}

func isDropped(n *html.Node) bool {
	return n.Type == html.ElementNode && droppedElements[n.DataAtom]
}

func pruneElements(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isDropped(c) {
			n.RemoveChild(c)
		} else {
			pruneElements(c)
		}
		c = next
	}
}

// textContent sammelt den Text unterhalb von n. Entities kommen vom Parser
// bereits dekodiert.
func textContent(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Script || n.DataAtom == atom.Style {
			return
		}
	}
	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		sb.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		textContent(c, sb)
	}
	if block {
		sb.WriteString(" ")
	}
}

func plainText(nodes []*html.Node) string {
	var sb strings.Builder
	for _, n := range nodes {
		textContent(n, &sb)
	}
	return collapseWhitespace(emphasisRepl.Replace(sb.String()))
}

// stripTags gibt den reinen Text eines HTML-Fragments zurück, ohne
// Markdown-Hervorhebungen und mit zusammengefasstem Leerraum.
func stripTags(s string) string {
	nodes, err := parseFragment(s)
	if err != nil {
		return collapseWhitespace(emphasisRepl.Replace(s))
	}
	return plainText(nodes)
}

// firstParagraphText liefert den Text des ersten <p>, sonst den gesamten Text.
func firstParagraphText(s string) string {
	nodes, err := parseFragment(s)
	if err != nil {
		return stripTags(s)
	}
	for _, n := range nodes {
		if p := findElement(n, atom.P); p != nil {
			return plainText([]*html.Node{p})
		}
	}
	return plainText(nodes)
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// collapseWhitespace fasst mehrfache Leerzeichen zusammen und begrenzt Leerzeilen auf eine.
func collapseWhitespace(s string) string {
	s = multiSpaceRE.ReplaceAllString(s, " ")
	s = newlinesRE.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
