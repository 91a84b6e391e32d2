package output

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// fallbackDocument is the last-resort payload when even marshalling
// the results fails. Consumers always find a parseable file.
const fallbackDocument = `{"error": "Failed to create output file"}`

// Writer persists the run's result document. The file is written on
// every run, including total-failure runs.
type Writer struct {
	path   string
	logger zerolog.Logger
}

// NewWriter creates a writer targeting the given path.
func NewWriter(path string) *Writer {
	return &Writer{
		path:   path,
		logger: log.With().Str("component", "output_writer").Logger(),
	}
}

// Write marshals the document to the output path with indentation.
// On failure it still leaves a minimal well-formed error document
// behind.
func (w *Writer) Write(document any) error {
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		w.logger.Error().Err(err).Msg("Could not marshal results")
		w.writeFallback()
		return err
	}

	if err := os.WriteFile(w.path, data, 0o644); err != nil {
		w.logger.Error().Err(err).Msg("Could not write output file")
		w.writeFallback()
		return err
	}

	w.logger.Info().Str("path", w.path).Msg("Results saved")
	return nil
}

func (w *Writer) writeFallback() {
	if err := os.WriteFile(w.path, []byte(fallbackDocument), 0o644); err != nil {
		w.logger.Error().Err(err).Msg("Could not write fallback output file")
	}
}
