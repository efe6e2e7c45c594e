package transcriber

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Recognizer interface defines the operations needed from the remote
// speech-recognition service: submit one audio object and block until its
// ordered phrases are available or the context ends.
type Recognizer interface {
	Recognize(ctx context.Context, uri string) ([]string, error)
}

// GoogleRecognizer is a Recognizer backed by the Google Cloud Speech
// long-running recognition API.
type GoogleRecognizer struct {
	client       *speech.Client
	languageCode string
	logger       *zap.Logger
}

// NewGoogleRecognizer creates a GoogleRecognizer for the given language.
// Client options allow tests to inject a fake endpoint.
func NewGoogleRecognizer(ctx context.Context, languageCode string, logger *zap.Logger, opts ...option.ClientOption) (*GoogleRecognizer, error) {
	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	return &GoogleRecognizer{
		client:       client,
		languageCode: languageCode,
		logger:       logger,
	}, nil
}

// Recognize submits the audio at uri as a long-running recognition operation
// and waits for its result. The ctx deadline bounds the whole wait; phrases
// come back in the service's temporal order and are not reordered here.
func (r *GoogleRecognizer) Recognize(ctx context.Context, uri string) ([]string, error) {
	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              speechpb.RecognitionConfig_LINEAR16,
			LanguageCode:          r.languageCode,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Uri{Uri: uri},
		},
	}

	operation, err := r.client.LongRunningRecognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to submit recognition for %s: %w", uri, err)
	}

	r.logger.Info("recognition operation started",
		zap.String("uri", uri),
		zap.String("operation", operation.Name()))

	resp, err := operation.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("recognition operation for %s did not complete: %w", uri, err)
	}

	phrases := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		// The first alternative is the service's most likely transcript.
		phrases = append(phrases, alternatives[0].GetTranscript())
	}

	r.logger.Debug("recognition operation completed",
		zap.String("uri", uri),
		zap.Int("phrases", len(phrases)))
	return phrases, nil
}

// Close releases the underlying speech client.
func (r *GoogleRecognizer) Close() error {
	return r.client.Close()
}
