package transcriber

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

// Line is one transcript line: a phrase paired with the start label of the
// segment it was recognized in.
type Line struct {
	StartLabel string `json:"start_label"`
	Phrase     string `json:"phrase"`
}

// Transcript is the terminal artifact: lines ordered by originating segment
// index, then by phrase order within the segment.
type Transcript []Line

// Assemble flattens fragments, already in segment-index order, into a
// transcript. Pure function: no I/O, no reordering of phrases.
func Assemble(fragments []TranscriptFragment) Transcript {
	transcript := make(Transcript, 0, len(fragments))
	for _, fragment := range fragments {
		for _, phrase := range fragment.Phrases {
			transcript = append(transcript, Line{
				StartLabel: fragment.StartLabel,
				Phrase:     phrase,
			})
		}
	}
	return transcript
}

// TextOutput renders a transcript as "HH:MM:SS - phrase" lines to a writer.
type TextOutput struct {
	writer io.Writer
	logger *zap.Logger
}

// NewTextOutput creates a TextOutput instance.
func NewTextOutput(writer io.Writer, logger *zap.Logger) *TextOutput {
	return &TextOutput{
		writer: writer,
		logger: logger,
	}
}

// WriteTranscript writes every transcript line to the output writer.
func (o *TextOutput) WriteTranscript(transcript Transcript) error {
	for _, line := range transcript {
		if _, err := fmt.Fprintf(o.writer, "%s - %s\n", line.StartLabel, line.Phrase); err != nil {
			return fmt.Errorf("failed to write transcript line: %w", err)
		}
	}

	o.logger.Debug("transcript written", zap.Int("lines", len(transcript)))
	return nil
}
