package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Instrument identifies one analyzed index and its option parameters.
type Instrument struct {
	Key        string  `yaml:"key"`         // output record key, e.g. "nifty"
	Symbol     string  `yaml:"symbol"`      // NSE symbol, e.g. "NIFTY"
	DataSymbol string  `yaml:"data_symbol"` // Twelve Data symbol for candles
	StrikeStep float64 `yaml:"strike_step"` // option strike spacing
}

// Thresholds is the tunable decision table. Values are loadable from an
// optional YAML file so variants are configuration, not copied code.
type Thresholds struct {
	RSIPeriod            int     `yaml:"rsi_period"`
	SMAShortWindow       int     `yaml:"sma_short_window"`
	SMALongWindow        int     `yaml:"sma_long_window"`
	ATRPeriod            int     `yaml:"atr_period"`
	SRWindow             int     `yaml:"sr_window"`
	MomentumLookback     int     `yaml:"momentum_lookback"`
	MomentumThresholdPct float64 `yaml:"momentum_threshold_pct"`
	RSILowerNeutral      float64 `yaml:"rsi_lower_neutral"`
	RSIOverbought        float64 `yaml:"rsi_overbought"`
	RSIOversold          float64 `yaml:"rsi_oversold"`
	MinConditions        int     `yaml:"min_conditions"`
	BaseMove             float64 `yaml:"base_move"`
	PCRBullish           float64 `yaml:"pcr_bullish"`
	PCRBearish           float64 `yaml:"pcr_bearish"`
	VolatilityCeiling    float64 `yaml:"volatility_ceiling"`
	VolatilityPolicy     string  `yaml:"volatility_policy"` // warn | veto
	ORBWindowStart       string  `yaml:"orb_window_start"`  // "09:15"
	ORBWindowEnd         string  `yaml:"orb_window_end"`    // "09:45"
	ORBMinSamples        int     `yaml:"orb_min_samples"`
	CooldownSamples      int     `yaml:"cooldown_samples"`
	MaxTradesPerSession  int     `yaml:"max_trades_per_session"`
	LateSessionCutoff    string  `yaml:"late_session_cutoff"` // "14:00"
	StrengthStrong       float64 `yaml:"strength_strong"`     // fraction of range
	StrengthModerate     float64 `yaml:"strength_moderate"`
}

// Config holds all application configuration.
type Config struct {
	TwelveAPIKey     string
	NewsAPIKey       string
	DatabaseURL      string
	TelegramBotToken string
	TelegramChatID   int64

	Interval       string
	CandleCount    int
	OutputPath     string
	LogLevel       string
	RequestTimeout int // seconds

	Instruments []Instrument
	Thresholds  Thresholds
}

// DefaultThresholds returns the decision table used when no YAML
// overrides are provided.
func DefaultThresholds() Thresholds {
	return Thresholds{
		RSIPeriod:            14,
		SMAShortWindow:       20,
		SMALongWindow:        50,
		ATRPeriod:            14,
		SRWindow:             20,
		MomentumLookback:     10,
		MomentumThresholdPct: 0.3,
		RSILowerNeutral:      50,
		RSIOverbought:        70,
		RSIOversold:          30,
		MinConditions:        3,
		BaseMove:             100,
		PCRBullish:           1.2,
		PCRBearish:           0.8,
		VolatilityCeiling:    20,
		VolatilityPolicy:     "warn",
		ORBWindowStart:       "09:15",
		ORBWindowEnd:         "09:45",
		ORBMinSamples:        3,
		CooldownSamples:      2,
		MaxTradesPerSession:  10,
		LateSessionCutoff:    "14:00",
		StrengthStrong:       0.5,
		StrengthModerate:     0.2,
	}
}

// DefaultInstruments returns the two indices every source variant
// analyzes.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{Key: "nifty", Symbol: "NIFTY", DataSymbol: "NIFTY 50", StrikeStep: 50},
		{Key: "banknifty", Symbol: "BANKNIFTY", DataSymbol: "NIFTY BANK", StrikeStep: 100},
	}
}

// Load initializes configuration from environment variables, applying
// YAML threshold overrides when THRESHOLDS_FILE is set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TwelveAPIKey:     os.Getenv("TWELVE_API_KEY"),
		NewsAPIKey:       os.Getenv("NEWS_API_KEY"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0),
		Interval:         getEnvWithDefault("INTERVAL", "5min"),
		CandleCount:      getEnvIntWithDefault("CANDLE_COUNT", 60),
		OutputPath:       getEnvWithDefault("OUTPUT_PATH", "data.json"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout:   getEnvIntWithDefault("REQUEST_TIMEOUT", 30),
		Instruments:      DefaultInstruments(),
		Thresholds:       DefaultThresholds(),
	}

	if path := os.Getenv("THRESHOLDS_FILE"); path != "" {
		if err := cfg.applyThresholdsFile(path); err != nil {
			return nil, fmt.Errorf("loading thresholds file: %w", err)
		}
	}

	if p := cfg.Thresholds.VolatilityPolicy; p != "warn" && p != "veto" {
		return nil, fmt.Errorf("invalid volatility_policy %q (want warn or veto)", p)
	}

	return cfg, nil
}

// thresholdsFile mirrors the YAML document layout.
type thresholdsFile struct {
	Thresholds  Thresholds   `yaml:"thresholds"`
	Instruments []Instrument `yaml:"instruments"`
}

func (c *Config) applyThresholdsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// Start from defaults so the file only has to name what it changes.
	doc := thresholdsFile{Thresholds: c.Thresholds}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}

	c.Thresholds = doc.Thresholds
	if len(doc.Instruments) > 0 {
		c.Instruments = doc.Instruments
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
