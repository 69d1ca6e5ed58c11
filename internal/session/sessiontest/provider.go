// Package sessiontest serves html fixtures through the session interfaces.
package sessiontest

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"chcrawler/internal/session"
)

// Missing is served for urls that have no fixture, it carries both the
// search error marker and the not found marker.
const Missing = `<html><body>
<h1 id="page-not-found-header">Page not found</h1>
<p id="error-code">404</p>
</body></html>`

// Provider is an in-memory session.Provider, fixtures are keyed by the
// full url that is navigated to.
type Provider struct {
	mutex    sync.Mutex
	pages    map[string]string
	failures map[string]error
	visits   map[string]int

	// Delay is waited (or until the context is done) on every navigation.
	Delay time.Duration
	// OpenErr is returned from Open when set.
	OpenErr error

	active    int
	maxActive int
	opened    int
	closed    int
}

func NewProvider() *Provider {
	return &Provider{
		pages:    make(map[string]string),
		failures: make(map[string]error),
		visits:   make(map[string]int),
	}
}

// Serve registers the html returned for link.
func (p *Provider) Serve(link, html string) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.pages[link] = html
}

// Fail makes every navigation to link fail with err.
func (p *Provider) Fail(link string, err error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.failures[link] = err
}

// Visits returns how many times link has been navigated to.
func (p *Provider) Visits(link string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.visits[link]
}

// TotalVisits returns the number of navigations to links starting with prefix.
func (p *Provider) TotalVisits(prefix string) int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	total := 0
	for link, count := range p.visits {
		if strings.HasPrefix(link, prefix) {
			total += count
		}
	}
	return total
}

// Active is the number of sessions currently open.
func (p *Provider) Active() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.active
}

// MaxActive is the highest number of sessions that were open at once.
func (p *Provider) MaxActive() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.maxActive
}

func (p *Provider) Opened() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.opened
}

func (p *Provider) Closed() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.closed
}

func (p *Provider) Open(ctx context.Context) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()
	if p.OpenErr != nil {
		return nil, p.OpenErr
	}
	p.opened++
	p.active++
	if p.active > p.maxActive {
		p.maxActive = p.active
	}
	return &memorySession{provider: p}, nil
}

func (p *Provider) fetch(link string) (string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.visits[link]++
	if err, ok := p.failures[link]; ok {
		return "", err
	}
	html, ok := p.pages[link]
	if !ok {
		return Missing, nil
	}
	return html, nil
}

func (p *Provider) release() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.active--
	p.closed++
}

type memorySession struct {
	provider *Provider
	page     *session.Page
	closed   bool
}

func (s *memorySession) Navigate(ctx context.Context, link string) error {
	if s.closed {
		return &session.Error{URL: link, Err: session.ErrClosed}
	}
	s.page = nil

	if s.provider.Delay > 0 {
		timer := time.NewTimer(s.provider.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &session.Error{URL: link, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	html, err := s.provider.fetch(link)
	if err != nil {
		return &session.Error{URL: link, Err: err}
	}

	base, err := url.Parse(link)
	if err != nil {
		return &session.Error{URL: link, Err: err}
	}
	page, err := session.NewPage(strings.NewReader(html), base)
	if err != nil {
		return &session.Error{URL: link, Err: fmt.Errorf("parse html: %w", err)}
	}
	s.page = page
	return nil
}

func (s *memorySession) Find(l session.Locator) (session.Element, bool) {
	return s.page.Find(l)
}

func (s *memorySession) FindAll(l session.Locator) []session.Element {
	return s.page.FindAll(l)
}

func (s *memorySession) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.page = nil
	s.provider.release()
	return nil
}
