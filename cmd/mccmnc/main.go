package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/mccmnc/internal/app"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		outputPath string
		pdfPath    string
		configPath string
		baseURL    string
		listing    string
		userAgent  string
		timeout    time.Duration
		reqTimeout time.Duration
		verbose    bool
	)

	flag.StringVar(&outputPath, "output", "", "Path to write the JSON MCC/MNC table (default "+app.DefaultOutputPath+")")
	flag.StringVar(&outputPath, "o", "", "Shorthand for -output")
	flag.StringVar(&pdfPath, "output.pdf", "", "Optional path to also write the table as PDF")
	flag.StringVar(&configPath, "config", "", "Optional YAML or JSON config file")
	flag.StringVar(&baseURL, "base", os.Getenv("MCCMNC_BASE_URL"), "Registry base URL (default "+app.DefaultBaseURL+")")
	flag.StringVar(&listing, "listing", "", "Publication listing path on the registry site (default "+app.DefaultListingPath+")")
	flag.StringVar(&userAgent, "ua", "", "Custom User-Agent for registry requests")
	flag.DurationVar(&timeout, "timeout", app.DefaultTimeout, "Deadline for the whole pipeline; 0 disables")
	flag.DurationVar(&reqTimeout, "timeout.request", 0, "Per-request timeout (default 15s)")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	cfg := app.Config{}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("load config")
			os.Exit(1)
		}
		cfg, err = fc.Apply(cfg)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("invalid config")
			os.Exit(1)
		}
	}
	// Flags override file values
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	if setFlags["timeout"] || cfg.Timeout == 0 {
		cfg.Timeout = timeout
	}
	if outputPath != "" {
		cfg.OutputPath = outputPath
	}
	if pdfPath != "" {
		cfg.PDFPath = pdfPath
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if listing != "" {
		cfg.ListingPath = listing
	}
	if userAgent != "" {
		cfg.UserAgent = userAgent
	}
	if reqTimeout != 0 {
		cfg.RequestTimeout = reqTimeout
	}
	if verbose {
		cfg.Verbose = true
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if err := app.New(cfg).Run(context.Background()); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}
}
