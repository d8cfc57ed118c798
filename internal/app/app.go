package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mccmnc/internal/convert"
	"github.com/hyperifyio/mccmnc/internal/extract"
	"github.com/hyperifyio/mccmnc/internal/fetch"
	"github.com/hyperifyio/mccmnc/internal/resolve"
)

// App wires the linear pipeline: resolve the latest document URL, fetch the
// document, convert it to markup, extract the table, and write the report.
// Every stage failure is terminal; no partial output is ever written.
type App struct {
	cfg       Config
	client    *fetch.Client
	converter convert.Converter
}

func New(cfg Config) *App {
	cfg = cfg.withDefaults()
	return &App{
		cfg: cfg,
		client: &fetch.Client{
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.RequestTimeout,
			RedirectMaxHops:   5,
		},
		converter: convert.DocxConverter{},
	}
}

func (a *App) Run(ctx context.Context) error {
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	resolver := &resolve.Resolver{
		Client:      a.client,
		BaseURL:     a.cfg.BaseURL,
		ListingPath: a.cfg.ListingPath,
	}
	docURL, err := resolver.LatestDocumentURL(ctx)
	if err != nil {
		return fmt.Errorf("resolve latest document: %w", err)
	}
	log.Info().Str("url", docURL).Msg("resolved latest registry document")

	doc, err := a.client.GetDocument(ctx, docURL)
	if err != nil {
		return fmt.Errorf("fetch document: %w", err)
	}
	log.Info().Int("bytes", len(doc.Body)).Str("etag", doc.ETag).Msg("fetched document")

	markup, err := a.converter.Convert(ctx, doc.Body)
	if err != nil {
		return fmt.Errorf("convert document: %w", err)
	}

	res, err := extract.Extract(markup)
	if err != nil {
		return fmt.Errorf("extract table: %w", err)
	}
	log.Info().Int("areas", len(res.AreaNames)).Msg("extracted area table")

	data, err := marshalReport(buildReport(res, doc, time.Now()))
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := os.WriteFile(a.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")

	if a.cfg.PDFPath != "" {
		if err := writeTablePDF(res, a.cfg.PDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
		log.Info().Str("out", a.cfg.PDFPath).Msg("wrote pdf")
	}
	return nil
}
