package transcriber

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAssemble(t *testing.T) {
	t.Run("should flatten fragments pairing each phrase with its start label", func(t *testing.T) {
		// Arrange
		fragments := []TranscriptFragment{
			{StartLabel: "00:00:00", Phrases: []string{"a", "b"}},
			{StartLabel: "00:01:02", Phrases: []string{"c"}},
		}

		// Act
		transcript := Assemble(fragments)

		// Assert
		assert.Equal(t, Transcript{
			{StartLabel: "00:00:00", Phrase: "a"},
			{StartLabel: "00:00:00", Phrase: "b"},
			{StartLabel: "00:01:02", Phrase: "c"},
		}, transcript)
	})

	t.Run("should skip silent fragments without losing order", func(t *testing.T) {
		fragments := []TranscriptFragment{
			{StartLabel: "00:00:00", Phrases: nil},
			{StartLabel: "00:01:02", Phrases: []string{"c"}},
		}

		transcript := Assemble(fragments)

		require.Len(t, transcript, 1)
		assert.Equal(t, Line{StartLabel: "00:01:02", Phrase: "c"}, transcript[0])
	})

	t.Run("should total the phrase counts across fragments", func(t *testing.T) {
		fragments := []TranscriptFragment{
			{StartLabel: "00:00:00", Phrases: []string{"a", "b", "c"}},
			{StartLabel: "00:01:00", Phrases: []string{"d"}},
			{StartLabel: "00:02:00", Phrases: []string{"e", "f"}},
		}

		assert.Len(t, Assemble(fragments), 6)
	})
}

func TestTextOutput_WriteTranscript(t *testing.T) {
	t.Run("should render start label dash phrase lines", func(t *testing.T) {
		var buf bytes.Buffer
		output := NewTextOutput(&buf, zap.NewNop())
		transcript := Transcript{
			{StartLabel: "00:00:00", Phrase: "bonjour"},
			{StartLabel: "00:01:02", Phrase: "au revoir"},
		}

		err := output.WriteTranscript(transcript)

		require.NoError(t, err)
		assert.Equal(t, "00:00:00 - bonjour\n00:01:02 - au revoir\n", buf.String())
	})

	t.Run("should write nothing for an empty transcript", func(t *testing.T) {
		var buf bytes.Buffer
		output := NewTextOutput(&buf, zap.NewNop())

		err := output.WriteTranscript(Transcript{})

		require.NoError(t, err)
		assert.Empty(t, buf.String())
	})
}

func TestTranscriptFragment_Validate(t *testing.T) {
	t.Run("should accept a well-formed fragment", func(t *testing.T) {
		fragment := &TranscriptFragment{StartLabel: "01:01:01", Phrases: []string{"text"}}
		assert.NoError(t, fragment.Validate())
	})

	t.Run("should accept an empty phrase list", func(t *testing.T) {
		fragment := &TranscriptFragment{StartLabel: "00:00:00"}
		assert.NoError(t, fragment.Validate())
	})

	t.Run("should reject an empty start label", func(t *testing.T) {
		fragment := &TranscriptFragment{Phrases: []string{"text"}}
		err := fragment.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "cannot be empty")
	})

	t.Run("should reject a malformed start label", func(t *testing.T) {
		fragment := &TranscriptFragment{StartLabel: "1:2:3"}
		assert.Error(t, fragment.Validate())
	})
}
