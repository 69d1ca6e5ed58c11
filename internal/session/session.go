// Package session is the navigation and DOM query capability the crawler
// runs on top of. A Session is owned by exactly one task at a time, every
// query operation on it is total: a missing element is reported as absent,
// never as an error.
package session

import (
	"context"
	"errors"
	"fmt"
)

// Locator is a CSS selector.
type Locator string

func ByID(id string) Locator {
	return Locator("#" + id)
}

func ByClass(class string) Locator {
	return Locator("." + class)
}

func ByTag(tag string) Locator {
	return Locator(tag)
}

func ByCSS(selector string) Locator {
	return Locator(selector)
}

type Element interface {
	// Text returns the rendered text of the element, trimmed with inner
	// whitespace collapsed.
	Text() string
	// Attr returns the value of an attribute, href and src are resolved
	// to absolute urls.
	Attr(name string) (string, bool)
	// Find returns the first descendant matching l.
	Find(l Locator) (Element, bool)
	// FindAll returns all descendants matching l in document order.
	FindAll(l Locator) []Element
	// Children returns the direct child elements.
	Children() []Element
}

type Session interface {
	// Navigate loads url, only failing when the page could not be
	// retrieved at all. client errors (404 and friends) still load
	// the returned page.
	Navigate(ctx context.Context, url string) error
	Find(l Locator) (Element, bool)
	FindAll(l Locator) []Element
	Close() error
}

// Provider creates isolated sessions, sessions created by the same
// provider share no state with each other.
type Provider interface {
	Open(ctx context.Context) (Session, error)
}

var ErrClosed = errors.New("session is closed")

// Error is returned when navigation cannot proceed.
type Error struct {
	URL string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("session: navigate %s: %s", e.URL, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
