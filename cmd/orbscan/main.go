package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/config"
	"optionsengine/internal/api/nse"
	"optionsengine/internal/api/twelvedata"
	"optionsengine/internal/output"
	"optionsengine/internal/scanner"
	"optionsengine/models"
)

// sessionReport is the per-instrument output of one scanner run.
type sessionReport struct {
	models.ScanResult
	Time  string `json:"time"`
	Error string `json:"error,omitempty"`
}

// main scans one session's candles for opening-range breakouts on
// every configured instrument. Like the engine, it always writes its
// output file and always exits 0.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		log.Error().Err(err).Msg("Configuration failed")
		writeErrorDocument(err)
		os.Exit(0)
	}

	lvl, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	log.Info().
		Str("orb_window", cfg.Thresholds.ORBWindowStart+"-"+cfg.Thresholds.ORBWindowEnd).
		Int("max_trades", cfg.Thresholds.MaxTradesPerSession).
		Msg("ORB scanner starting")

	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	candleClient := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: timeout,
	})
	nseClient := nse.NewClient(nse.ClientOptions{
		RequestTimeout: timeout,
	})

	ctx := context.Background()

	vix, hasVIX := 0.0, false
	if v, err := nseClient.GetVIX(ctx); err == nil {
		vix, hasVIX = v, true
	} else {
		log.Warn().Err(err).Msg("VIX unavailable, scanning without volatility gate")
	}

	scan := scanner.NewScanner(cfg.Thresholds)
	now := time.Now().Format("15:04")
	results := make(map[string]sessionReport, len(cfg.Instruments))

	for _, inst := range cfg.Instruments {
		report := sessionReport{Time: now}

		candles, err := candleClient.GetCandles(ctx, inst.DataSymbol, cfg.Interval, cfg.CandleCount)
		if err != nil {
			log.Error().Err(err).Str("instrument", inst.Key).Msg("Candle fetch failed")
			report.Status = models.ScanWaiting
			report.Trades = []models.TradeEvent{}
			report.Error = err.Error()
		} else {
			report.ScanResult = scan.Scan(candles, vix, hasVIX)
		}

		results[inst.Key] = report
	}

	if err := output.NewWriter(cfg.OutputPath).Write(results); err != nil {
		log.Error().Err(err).Msg("Writing results failed")
	}

	log.Info().Msg("Scanner completed")
	os.Exit(0)
}

// writeErrorDocument emits a WAITING report per default instrument when
// the scan could not start, so consumers still find a complete file.
func writeErrorDocument(cause error) {
	now := time.Now().Format("15:04")

	results := make(map[string]sessionReport)
	for _, inst := range config.DefaultInstruments() {
		results[inst.Key] = sessionReport{
			ScanResult: models.ScanResult{
				Status: models.ScanWaiting,
				Trades: []models.TradeEvent{},
			},
			Time:  now,
			Error: cause.Error(),
		}
	}

	path := os.Getenv("OUTPUT_PATH")
	if path == "" {
		path = "data.json"
	}
	if err := output.NewWriter(path).Write(results); err != nil {
		log.Error().Err(err).Msg("Writing error document failed")
	}
}
