package resolve

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// ErrLinkNotFound signals that an expected link is missing from a fetched
// page, which usually means the registry site changed its layout or the
// product listing is empty.
var ErrLinkNotFound = errors.New("expected link not found")

// Default selectors for the registry's publication pages. The index page
// lists one product per revision with a titled link; each product's overview
// page lists downloadable artifacts in an item table.
const (
	defaultTitleSelector    = "td.producttitle a[href]"
	defaultDocumentSelector = "table.itemtable a[href$='.docx']"
)

// PageFetcher is the minimal fetch surface the resolver needs.
type PageFetcher interface {
	GetPage(ctx context.Context, url string) (string, error)
}

// Resolver locates the latest published registry document by walking the
// two-level publication hierarchy: index page -> product overview -> artifact.
type Resolver struct {
	Client      PageFetcher
	BaseURL     string
	ListingPath string

	// TitleSelector and DocumentSelector override the default link queries.
	// Empty means default.
	TitleSelector    string
	DocumentSelector string
}

// FindOverviewPath returns the href of the last title link on the index page.
// Products are listed oldest to newest, so the last link is the most recent
// revision.
func (r *Resolver) FindOverviewPath(indexPage string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(indexPage))
	if err != nil {
		return "", fmt.Errorf("parse index page: %w", err)
	}
	sel := doc.Find(orDefault(r.TitleSelector, defaultTitleSelector))
	href, ok := sel.Last().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("overview link on index page: %w", ErrLinkNotFound)
	}
	return href, nil
}

// FindDocumentPath returns the href of the first document link inside the
// overview page's item table.
func (r *Resolver) FindDocumentPath(overviewPage string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(overviewPage))
	if err != nil {
		return "", fmt.Errorf("parse overview page: %w", err)
	}
	sel := doc.Find(orDefault(r.DocumentSelector, defaultDocumentSelector))
	href, ok := sel.First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("document link on overview page: %w", ErrLinkNotFound)
	}
	return href, nil
}

// LatestDocumentURL performs both lookups and returns the absolute URL of the
// most recent registry document. Each call fetches both pages fresh; there is
// no retry and no caching of intermediate pages.
func (r *Resolver) LatestDocumentURL(ctx context.Context) (string, error) {
	indexURL, err := r.absolute(r.ListingPath)
	if err != nil {
		return "", err
	}
	indexPage, err := r.Client.GetPage(ctx, indexURL)
	if err != nil {
		return "", fmt.Errorf("fetch index page: %w", err)
	}
	overviewPath, err := r.FindOverviewPath(indexPage)
	if err != nil {
		return "", err
	}
	log.Debug().Str("path", overviewPath).Msg("resolved overview page")

	overviewURL, err := r.absolute(overviewPath)
	if err != nil {
		return "", err
	}
	overviewPage, err := r.Client.GetPage(ctx, overviewURL)
	if err != nil {
		return "", fmt.Errorf("fetch overview page: %w", err)
	}
	docPath, err := r.FindDocumentPath(overviewPage)
	if err != nil {
		return "", err
	}
	return r.absolute(docPath)
}

// absolute resolves a possibly relative path against the configured base URL.
func (r *Resolver) absolute(path string) (string, error) {
	base, err := url.Parse(r.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL %q: %w", r.BaseURL, err)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("parse path %q: %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
