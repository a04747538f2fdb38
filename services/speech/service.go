// Package speech implements the audio pipeline: transcription, translation,
// synthesis and language detection.
package speech

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"go.uber.org/zap"
)

const (
	DefaultSourceLanguage = "ta-IN"
	DefaultTargetLanguage = "en-IN"

	unknownLanguage = "Unknown"
	durationSignal  = "duration greater than 30 seconds"
)

// ErrAudioTooLong is returned when the speech provider rejects a clip for its length.
var ErrAudioTooLong = services.NewDomainError(
	services.ErrorTypeValidation,
	"Audio too long. Sarvam API only supports <30s for real-time. Use shorter audio.",
	nil,
)

var languagePrefix = regexp.MustCompile(`^\[Language: (.+?)\]`)

// ProcessResult is the outcome of the transcribe-then-translate pipeline.
type ProcessResult struct {
	Transcript     string `json:"transcript"`
	Translation    string `json:"translation"`
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
}

// DetectResult is a transcription with the language the model detected.
type DetectResult struct {
	Transcript       string `json:"transcript"`
	Language         string `json:"language"`
	OriginalResponse string `json:"original_response"`
}

// Service runs speech operations against the configured providers
type Service struct {
	speech     providers.SpeechProvider
	generative providers.GenerativeProvider
	logger     *zap.Logger
}

// NewService creates a new speech service
func NewService(speech providers.SpeechProvider, generative providers.GenerativeProvider, logger *zap.Logger) *Service {
	return &Service{
		speech:     speech,
		generative: generative,
		logger:     logger,
	}
}

// Transcribe converts the staged audio file to text.
func (s *Service) Transcribe(ctx context.Context, audioPath, languageCode string) (string, error) {
	if languageCode == "" {
		languageCode = DefaultSourceLanguage
	}
	transcript, err := s.speech.SpeechToText(ctx, audioPath, languageCode)
	if err != nil {
		s.logger.Error("speech to text failed", zap.String("language_code", languageCode), zap.Error(err))
		return "", mapSpeechError(err)
	}
	return transcript, nil
}

// Translate converts text between languages. Blank input yields "" without a provider call.
func (s *Service) Translate(ctx context.Context, text, source, target string) (string, error) {
	if isBlank(text) {
		return "", nil
	}
	if source == "" {
		source = DefaultSourceLanguage
	}
	if target == "" {
		target = DefaultTargetLanguage
	}
	out, err := s.speech.Translate(ctx, text, source, target)
	if err != nil {
		s.logger.Error("translation failed",
			zap.String("source_language", source),
			zap.String("target_language", target),
			zap.Error(err))
		return "", mapSpeechError(err)
	}
	return out, nil
}

// Process transcribes audio and translates the transcript when it is in the
// Tamil script. Other scripts are passed through as the translation.
func (s *Service) Process(ctx context.Context, audioPath, source, target string) (*ProcessResult, error) {
	if source == "" {
		source = DefaultSourceLanguage
	}
	if target == "" {
		target = DefaultTargetLanguage
	}

	transcript, err := s.Transcribe(ctx, audioPath, source)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{
		Transcript:     transcript,
		SourceLanguage: source,
		TargetLanguage: target,
	}

	switch {
	case isBlank(transcript):
		s.logger.Debug("empty transcript, skipping translation")
	case IsTargetScript(transcript):
		translation, err := s.Translate(ctx, transcript, source, target)
		if err != nil {
			return nil, err
		}
		result.Translation = translation
	default:
		result.Translation = transcript
	}

	return result, nil
}

// Speak synthesises text and returns WAV bytes.
func (s *Service) Speak(ctx context.Context, text, languageCode string) ([]byte, error) {
	if isBlank(text) {
		return nil, services.NewValidationError("text is required")
	}
	if languageCode == "" {
		languageCode = DefaultSourceLanguage
	}
	audio, err := s.speech.TextToSpeech(ctx, text, languageCode)
	if err != nil {
		s.logger.Error("text to speech failed", zap.String("language_code", languageCode), zap.Error(err))
		return nil, err
	}
	return audio, nil
}

// DetectAndTranscribe transcribes audio with the generative model and splits
// the "[Language: X]" prefix from the transcript.
func (s *Service) DetectAndTranscribe(ctx context.Context, audioPath, mimeType string) (*DetectResult, error) {
	raw, err := s.generative.TranscribeAudio(ctx, audioPath, mimeType)
	if err != nil {
		s.logger.Error("audio transcription failed", zap.Error(err))
		return nil, err
	}
	return ParseDetectedLanguage(raw), nil
}

// ParseDetectedLanguage splits a "[Language: X] text" response.
func ParseDetectedLanguage(raw string) *DetectResult {
	result := &DetectResult{
		Transcript:       raw,
		Language:         unknownLanguage,
		OriginalResponse: raw,
	}
	if m := languagePrefix.FindStringSubmatch(raw); m != nil {
		result.Language = m[1]
		result.Transcript = strings.TrimSpace(strings.Replace(raw, m[0], "", 1))
	}
	return result
}

// mapSpeechError turns the provider's clip-length rejection into ErrAudioTooLong.
func mapSpeechError(err error) error {
	var provErr *providers.ProviderError
	if errors.As(err, &provErr) && strings.Contains(provErr.Body+provErr.Message, durationSignal) {
		return services.NewDomainError(services.ErrorTypeValidation, ErrAudioTooLong.Message, err)
	}
	return err
}
