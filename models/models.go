package models

import (
	"time"
)

// Candle represents a single OHLCV price sample.
type Candle struct {
	Datetime  string    `json:"datetime"`
	Timestamp time.Time `json:"-"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume,omitempty"`
}

// TwelveResponse represents the time_series response from Twelve Data.
type TwelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string `json:"datetime"`
		Open     string `json:"open"`
		High     string `json:"high"`
		Low      string `json:"low"`
		Close    string `json:"close"`
		Volume   string `json:"volume,omitempty"`
	} `json:"values"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// OptionChain is the validated slice of an index option chain the
// engine cares about: spot price plus per-strike open interest.
type OptionChain struct {
	Symbol     string
	SpotPrice  float64
	Strikes    []StrikeOI
	PCR        float64
	FetchedAt  time.Time
	NearestPCR int // number of strikes the PCR was computed over
}

// StrikeOI holds call/put open interest at one strike.
type StrikeOI struct {
	StrikePrice float64
	CallOI      int64
	PutOI       int64
}

// IndicatorSet holds the derived indicator values for one run.
// Recomputed every run; no identity beyond the run that produced it.
type IndicatorSet struct {
	RSI         float64 `json:"rsi"`
	SMAShort    float64 `json:"sma_short"`
	SMAShortOK  bool    `json:"-"`
	SMALong     float64 `json:"sma_long,omitempty"`
	SMALongOK   bool    `json:"-"`
	Support     float64 `json:"support"`
	Resistance  float64 `json:"resistance"`
	ATR         float64 `json:"atr,omitempty"`
	ATRValid    bool    `json:"-"`
	ATRRising   bool    `json:"atr_expanding,omitempty"`
	Momentum    float64 `json:"momentum_pct"` // percent change over the look-back
	VolumeSpike bool    `json:"volume_spike,omitempty"`
}

// OpeningRange is the high/low of the fixed early-session window.
// Formed is false until the window holds enough samples.
type OpeningRange struct {
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Formed bool    `json:"formed"`
}

// Size returns the width of the range.
func (r OpeningRange) Size() float64 {
	return r.High - r.Low
}

// Sentiment score bounds for the news modifier.
const (
	SentimentMin = -10
	SentimentMax = 10
)

// Signal sides. ERROR is terminal and only used when required upstream
// inputs are missing or invalid.
const (
	SideBuyCall = "BUY CALL (CE)"
	SideBuyPut  = "BUY PUT (PE)"
	SideAvoid   = "AVOID"
	SideError   = "ERROR"
)

// SignalRecord is the engine's decision for one (instrument, run).
type SignalRecord struct {
	Side       string        `json:"side"`
	Entry      string        `json:"entry"`
	Exit       string        `json:"exit"`
	Time       string        `json:"time"`
	Price      string        `json:"price"`
	Error      string        `json:"error,omitempty"`
	PCR        float64       `json:"pcr,omitempty"`
	VIX        float64       `json:"vix,omitempty"`
	Sentiment  int           `json:"sentiment,omitempty"`
	Confidence int           `json:"confidence,omitempty"`
	Target     float64       `json:"target,omitempty"`
	StopLoss   float64       `json:"stop_loss,omitempty"`
	Strikes    []float64     `json:"suggested_strikes,omitempty"`
	Expiry     string        `json:"expiry,omitempty"`
	Indicators *IndicatorSet `json:"indicators,omitempty"`
}

// Trade strength tiers for the breakout scanner.
const (
	StrengthStrong   = "STRONG"
	StrengthModerate = "MODERATE"
)

// Trade directions for the breakout scanner.
const (
	DirectionCall = "CALL"
	DirectionPut  = "PUT"
)

// TradeEvent is one accepted breakout for the scanner variant.
type TradeEvent struct {
	Sequence   int     `json:"sequence"`
	EntryTime  string  `json:"entry_time"`
	EntryPrice float64 `json:"entry_price"`
	Direction  string  `json:"direction"`
	Strength   string  `json:"strength"`
	Target     float64 `json:"target"`
	StopLoss   float64 `json:"stop_loss"`
}

// Scan statuses. WAITING means the opening range has not formed;
// NO_SIGNALS is a valid empty outcome, not a failure.
const (
	ScanWaiting   = "WAITING"
	ScanNoSignals = "NO_SIGNALS"
	ScanComplete  = "COMPLETE"
)

// ScanResult is the breakout scanner's output for one session.
type ScanResult struct {
	Status string       `json:"status"`
	Range  OpeningRange `json:"opening_range"`
	Trades []TradeEvent `json:"trades"`
}
