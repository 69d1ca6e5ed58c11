package session

import (
	"io"
	"net/url"

	"chcrawler/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Page is a parsed document, it implements the query half of Session.
// A nil *Page is valid and finds nothing.
type Page struct {
	doc  *goquery.Document
	base *url.URL
}

// NewPage parses an html document, base is used to resolve relative links.
func NewPage(r io.Reader, base *url.URL) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Page{doc: doc, base: base}, nil
}

func (p *Page) URL() *url.URL {
	if p == nil {
		return nil
	}
	return p.base
}

func (p *Page) Find(l Locator) (Element, bool) {
	if p == nil {
		return nil, false
	}
	return first(p.doc.Selection, l, p.base)
}

func (p *Page) FindAll(l Locator) []Element {
	if p == nil {
		return nil
	}
	return all(p.doc.Find(string(l)), p.base)
}

type element struct {
	sel  *goquery.Selection
	base *url.URL
}

func first(sel *goquery.Selection, l Locator, base *url.URL) (Element, bool) {
	found := sel.Find(string(l)).First()
	if found.Length() == 0 {
		return nil, false
	}
	return element{sel: found, base: base}, true
}

func all(sel *goquery.Selection, base *url.URL) []Element {
	elements := make([]Element, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		elements = append(elements, element{sel: s, base: base})
	})
	return elements
}

func (e element) Text() string {
	return htmlutil.NormalizeText(e.sel.Text())
}

func (e element) Attr(name string) (string, bool) {
	value, ok := e.sel.Attr(name)
	if !ok {
		return "", false
	}
	switch name {
	case "href", "src":
		return htmlutil.ResolveHref(e.base, value)
	}
	return value, true
}

func (e element) Find(l Locator) (Element, bool) {
	return first(e.sel, l, e.base)
}

func (e element) FindAll(l Locator) []Element {
	return all(e.sel.Find(string(l)), e.base)
}

func (e element) Children() []Element {
	return all(e.sel.Children(), e.base)
}
