package ics

import (
	"context"

	"calclash/internal/model"
	"calclash/internal/source"
)

const defaultPageSize = 50

// Provider adapts one ICS feed to the source paging contract. The first
// FetchNextPage call fetches, parses, and expands the feed; subsequent
// calls serve fixed-size pages of the result and finally an empty page.
type Provider struct {
	feed     Feed
	fetcher  *Fetcher
	window   Window
	pageSize int

	loaded bool
	events []model.Event
	cursor int
}

var _ source.Provider = (*Provider)(nil)

// NewProvider creates a paging provider for one feed. pageSize <= 0
// selects the default.
func NewProvider(feed Feed, fetcher *Fetcher, window Window, pageSize int) *Provider {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Provider{
		feed:     feed,
		fetcher:  fetcher,
		window:   window,
		pageSize: pageSize,
	}
}

// FetchNextPage implements source.Provider.
func (p *Provider) FetchNextPage(ctx context.Context) ([]model.Event, error) {
	if !p.loaded {
		if err := p.load(ctx); err != nil {
			return nil, err
		}
		p.loaded = true
	}

	if p.cursor >= len(p.events) {
		return nil, nil
	}

	end := p.cursor + p.pageSize
	if end > len(p.events) {
		end = len(p.events)
	}
	page := p.events[p.cursor:end]
	p.cursor = end
	return page, nil
}

func (p *Provider) load(ctx context.Context) error {
	body, _, err := p.fetcher.Fetch(ctx, p.feed)
	if err != nil {
		return err
	}
	parsed, err := Parse(p.feed, body)
	if err != nil {
		return err
	}
	events, err := Expand(parsed, p.window)
	if err != nil {
		return err
	}
	p.events = events
	return nil
}
