package notify

import (
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"optionsengine/models"
)

// Notifier sends a one-shot Telegram summary of the run's signals.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	logger zerolog.Logger
}

// New creates a Telegram notifier.
func New(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("creating telegram bot: %w", err)
	}

	return &Notifier{
		bot:    bot,
		chatID: chatID,
		logger: log.With().Str("component", "notifier").Logger(),
	}, nil
}

// SendRunSummary posts one message covering every instrument's record.
// prior holds the previous stored run per instrument and may be nil.
// Delivery failure is the caller's to log; it never affects the run
// result.
func (n *Notifier) SendRunSummary(results, prior map[string]models.SignalRecord) error {
	msg := tgbotapi.NewMessage(n.chatID, FormatSummary(results, prior))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}

	n.logger.Info().Int64("chat_id", n.chatID).Msg("Run summary sent")
	return nil
}

// FormatSummary renders the run results as a plain-text message,
// instruments in stable order. When prior context is available each
// block closes with the previous run's side.
func FormatSummary(results, prior map[string]models.SignalRecord) string {
	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("Options Engine Run\n")

	for _, k := range keys {
		r := results[k]
		fmt.Fprintf(&b, "\n%s [%s]\n", strings.ToUpper(k), r.Time)
		fmt.Fprintf(&b, "Side: %s\n", r.Side)
		if r.Entry != "" {
			fmt.Fprintf(&b, "Entry: %s | %s\n", r.Entry, r.Exit)
		}
		fmt.Fprintf(&b, "Price: %s", r.Price)
		if r.PCR > 0 {
			fmt.Fprintf(&b, " | PCR: %.2f", r.PCR)
		}
		if r.Confidence > 0 {
			fmt.Fprintf(&b, " | Confidence: %d%%", r.Confidence)
		}
		b.WriteString("\n")
		if p, ok := prior[k]; ok {
			fmt.Fprintf(&b, "Prev: %s\n", p.Side)
		}
	}

	return b.String()
}
