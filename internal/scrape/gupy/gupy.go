// Package gupy scrapes the public career boards hosted on gupy.io.
package gupy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobwatch/internal/domain"
	"jobwatch/internal/scrape/types"
	"jobwatch/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// Browser modes.
const (
	ModeAuto   = "auto"
	ModeAlways = "always"
	ModeNever  = "never"
)

// Both the older data-test markup and the current data-testid markup are
// still served depending on the board.
const (
	listSel     = `ul[data-test="job-list"], ul[data-testid="job-list__list"]`
	itemSel     = `li[data-test="job-list-item"], li[data-testid="job-list__listitem"]`
	titleSel    = `[data-test="job-name"], [data-testid="job-list__listitem-title"]`
	locationSel = `[data-test="job-location"], [data-testid="job-list__listitem-location"]`
	emptySel    = `[data-test="empty-state"], [data-testid="empty-state"]`
)

var emptyPhrases = []string{
	"nenhuma vaga encontrada",
	"não encontramos vagas",
	"nao encontramos vagas",
	"no jobs found",
}

type Scraper struct {
	http    types.Renderer
	browser types.Renderer // nil disables the fallback
	mode    string
}

func New(httpR, browserR types.Renderer, mode string) *Scraper {
	if mode == "" {
		mode = ModeAuto
	}
	return &Scraper{http: httpR, browser: browserR, mode: mode}
}

func (s *Scraper) Name() string { return "gupy" }

// Fetch returns the postings listed for term on src. A board that shows its
// empty-result state yields no postings and no error.
func (s *Scraper) Fetch(ctx context.Context, src domain.Source, term string) ([]domain.Posting, error) {
	u := src.SearchURL(term)

	var httpErr error
	if s.mode != ModeAlways || s.browser == nil {
		page, err := s.http.Render(ctx, u)
		if err == nil {
			if posts, found := ParseListing(page, src); found {
				return posts, nil
			}
			err = types.ErrNoListing
		}
		if s.mode == ModeNever || s.browser == nil {
			return nil, fmt.Errorf("gupy %s: %w", u, err)
		}
		httpErr = err
	}

	page, err := s.browser.Render(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("gupy browser %s: %w", u, errors.Join(err, httpErr))
	}
	posts, found := ParseListing(page, src)
	if !found {
		return nil, fmt.Errorf("gupy browser %s: %w", u, types.ErrNoListing)
	}
	return posts, nil
}

// ParseListing extracts postings from a rendered listing page. found reports
// whether the page was recognisably a listing (items, an empty list or the
// empty-result state).
func ParseListing(page string, src domain.Source) (posts []domain.Posting, found bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, false
	}

	items := doc.Find(itemSel)
	if items.Length() == 0 {
		return nil, doc.Find(listSel).Length() > 0 || isEmptyState(doc)
	}

	items.Each(func(_ int, li *goquery.Selection) {
		href, ok := li.Find("a[href]").First().Attr("href")
		if !ok {
			if href, ok = li.Closest("a[href]").Attr("href"); !ok {
				return
			}
		}
		title := util.CleanText(li.Find(titleSel).First().Text())
		if title == "" {
			title = util.CleanText(li.Find("h2, h3").First().Text())
		}
		if title == "" {
			return
		}
		posts = append(posts, domain.Posting{
			Identifier: util.CanonicalizeURL(util.Absolute(src.BaseURL, href)),
			Source:     src.Name,
			Title:      title,
			Location:   util.NormalizeLocation(li.Find(locationSel).First().Text()),
		})
	})
	return posts, true
}

func isEmptyState(doc *goquery.Document) bool {
	if doc.Find(emptySel).Length() > 0 {
		return true
	}
	text := strings.ToLower(util.CleanText(doc.Find("body").Text()))
	for _, p := range emptyPhrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
