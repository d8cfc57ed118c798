package app

import "time"

// Config holds runtime configuration for one pipeline run.
type Config struct {
	// OutputPath is where the JSON table is written.
	OutputPath string
	// PDFPath, when set, additionally renders the table as a PDF.
	PDFPath string

	// Registry location
	BaseURL     string
	ListingPath string

	// HTTP behavior
	UserAgent      string
	RequestTimeout time.Duration

	// Timeout bounds the whole pipeline. Zero means no deadline.
	Timeout time.Duration

	Verbose bool
}

// Defaults for the published registry and output locations.
const (
	DefaultOutputPath  = "mcc-mnc.json"
	DefaultBaseURL     = "https://www.itu.int"
	DefaultListingPath = "/pub/T-SP-E.212B"
	DefaultUserAgent   = "mccmnc/1.0 (+https://github.com/hyperifyio/mccmnc)"

	DefaultRequestTimeout = 15 * time.Second
	DefaultTimeout        = 60 * time.Second
)

// withDefaults fills unset fields so the rest of the app never re-checks.
func (c Config) withDefaults() Config {
	if c.OutputPath == "" {
		c.OutputPath = DefaultOutputPath
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ListingPath == "" {
		c.ListingPath = DefaultListingPath
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	return c
}
