package transcriber

import (
	"fmt"
	"regexp"
)

var startLabelPattern = regexp.MustCompile(`^\d{2,}:[0-5]\d:[0-5]\d$`)

// TranscriptFragment holds the recognized phrases for exactly one audio
// segment, in the temporal order the recognition service produced them.
type TranscriptFragment struct {
	StartLabel string   `json:"start_label"`
	Phrases    []string `json:"phrases"`
}

// Validate checks if the TranscriptFragment has valid values. An empty
// phrase list is valid: a silent segment recognizes nothing.
func (f *TranscriptFragment) Validate() error {
	if f.StartLabel == "" {
		return fmt.Errorf("start label cannot be empty")
	}
	if !startLabelPattern.MatchString(f.StartLabel) {
		return fmt.Errorf("start label %q is not an HH:MM:SS timestamp", f.StartLabel)
	}
	return nil
}
