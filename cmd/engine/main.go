package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/config"
	"optionsengine/internal/analyze"
	"optionsengine/internal/api/news"
	"optionsengine/internal/api/nse"
	"optionsengine/internal/api/twelvedata"
	"optionsengine/internal/database"
	"optionsengine/internal/notify"
	"optionsengine/internal/output"
	"optionsengine/models"
)

// main runs one analysis pass over all configured instruments. The
// output file is written and the process exits 0 no matter what fails
// upstream; failed instruments carry ERROR records instead.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		log.Error().Err(err).Msg("Configuration failed")
		writeErrorDocument(config.DefaultInstruments(), "ERROR - Configuration Failed", getOutputPath())
		os.Exit(0)
	}

	lvl, parseErr := zerolog.ParseLevel(cfg.LogLevel)
	if parseErr != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	log.Info().
		Str("interval", cfg.Interval).
		Int("instruments", len(cfg.Instruments)).
		Str("volatility_policy", cfg.Thresholds.VolatilityPolicy).
		Msg("Options engine starting")

	timeout := time.Duration(cfg.RequestTimeout) * time.Second

	nseClient := nse.NewClient(nse.ClientOptions{
		RequestTimeout: timeout,
	})
	candleClient := twelvedata.NewClient(twelvedata.ClientOptions{
		APIKey:         cfg.TwelveAPIKey,
		RequestTimeout: timeout,
	})

	var sentimentSource analyze.SentimentSource
	if cfg.NewsAPIKey != "" {
		sentimentSource = news.NewClient(news.ClientOptions{
			APIKey:         cfg.NewsAPIKey,
			RequestTimeout: timeout,
		})
	}

	analyzer := analyze.New(
		cfg,
		candleClient,
		nseClient,
		nseClient,
		twelvedata.VIXQuote{Client: candleClient},
		sentimentSource,
	)

	ctx := context.Background()
	results := analyzer.Run(ctx)

	writer := output.NewWriter(cfg.OutputPath)
	if err := writer.Write(results); err != nil {
		log.Error().Err(err).Msg("Writing results failed")
	}

	var db *database.DB
	if cfg.DatabaseURL != "" {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Error().Err(err).Msg("Database connection failed")
			db = nil
		} else {
			defer db.Close()
		}
	}

	// Prior runs are read before this run is stored, so the summary's
	// context is the previous run rather than the current one.
	prior := loadPriorRun(db, results)
	persistResults(db, results)
	notifyResults(cfg, results, prior)

	log.Info().Msg("Engine completed")
	os.Exit(0)
}

// loadPriorRun fetches each instrument's most recent stored record.
// Without a database (or history) the map is simply empty.
func loadPriorRun(db *database.DB, results map[string]models.SignalRecord) map[string]models.SignalRecord {
	prior := make(map[string]models.SignalRecord)
	if db == nil {
		return prior
	}

	for instrument := range results {
		records, err := db.RecentSignals(instrument, 1)
		if err != nil {
			log.Error().Err(err).Str("instrument", instrument).Msg("Loading signal history failed")
			continue
		}
		if len(records) > 0 {
			prior[instrument] = records[0]
		}
	}
	return prior
}

// persistResults stores the run in Postgres. Storage problems are
// logged, never fatal.
func persistResults(db *database.DB, results map[string]models.SignalRecord) {
	if db == nil {
		return
	}

	for instrument, record := range results {
		if err := db.InsertSignal(instrument, record); err != nil {
			log.Error().Err(err).Str("instrument", instrument).Msg("Storing signal failed")
		}
	}
}

// notifyResults sends the Telegram summary when a bot is configured.
func notifyResults(cfg *config.Config, results, prior map[string]models.SignalRecord) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == 0 {
		return
	}

	notifier, err := notify.New(cfg.TelegramBotToken, cfg.TelegramChatID)
	if err != nil {
		log.Error().Err(err).Msg("Notifier setup failed")
		return
	}
	if err := notifier.SendRunSummary(results, prior); err != nil {
		log.Error().Err(err).Msg("Sending summary failed")
	}
}

// writeErrorDocument emits the all-ERROR output when the run could not
// even start, so downstream consumers still find a complete file.
func writeErrorDocument(instruments []config.Instrument, side, path string) {
	now := time.Now().Format("15:04")

	results := make(map[string]models.SignalRecord, len(instruments))
	for _, inst := range instruments {
		results[inst.Key] = models.SignalRecord{
			Side:  side,
			Time:  now,
			Price: "N/A",
			Error: "engine could not start",
		}
	}

	if err := output.NewWriter(path).Write(results); err != nil {
		log.Error().Err(err).Msg("Writing error document failed")
	}
}

func getOutputPath() string {
	if path := os.Getenv("OUTPUT_PATH"); path != "" {
		return path
	}
	return "data.json"
}
