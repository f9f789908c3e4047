package stt

import (
	"context"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/tesslabs/tess/domain/repositories"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud. Credentials
// come from the ambient GOOGLE_APPLICATION_CREDENTIALS environment.
type GoogleSpeechToText struct {
	sampleRate int32
	language   string
	logger     *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a Google Cloud transcription client for
// 16kHz mono LINEAR16 clips.
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{
		sampleRate: 16000,
		language:   "en-US",
		logger:     logger,
	}
}

// Transcribe recognizes one complete clip and returns the best transcript.
func (g *GoogleSpeechToText) Transcribe(ctx context.Context, clip []byte) (string, error) {
	if len(clip) == 0 {
		return "", fmt.Errorf("audio clip is empty")
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:        speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz: g.sampleRate,
			LanguageCode:    g.language,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: clip},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognition failed: %w", err)
	}

	var transcript string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			transcript += result.Alternatives[0].Transcript
		}
	}

	if transcript == "" {
		g.logger.Warn("No speech detected in clip", zap.Int("clipBytes", len(clip)))
	}
	return transcript, nil
}
