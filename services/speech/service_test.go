package speech

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/gramgyan/backend/services"
	"github.com/gramgyan/backend/services/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockSpeechProvider is a mock implementation of providers.SpeechProvider
type MockSpeechProvider struct {
	mock.Mock
}

func (m *MockSpeechProvider) Name() string { return "sarvam" }

func (m *MockSpeechProvider) SpeechToText(ctx context.Context, audioPath, languageCode string) (string, error) {
	args := m.Called(ctx, audioPath, languageCode)
	return args.String(0), args.Error(1)
}

func (m *MockSpeechProvider) Translate(ctx context.Context, text, source, target string) (string, error) {
	args := m.Called(ctx, text, source, target)
	return args.String(0), args.Error(1)
}

func (m *MockSpeechProvider) TextToSpeech(ctx context.Context, text, languageCode string) ([]byte, error) {
	args := m.Called(ctx, text, languageCode)
	if b := args.Get(0); b != nil {
		return b.([]byte), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockGenerativeProvider is a mock implementation of providers.GenerativeProvider
type MockGenerativeProvider struct {
	mock.Mock
}

func (m *MockGenerativeProvider) Name() string { return "gemini" }

func (m *MockGenerativeProvider) GenerateText(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func (m *MockGenerativeProvider) GenerateContent(ctx context.Context, req *providers.GenerateRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockGenerativeProvider) EmbedContent(ctx context.Context, text string, taskType providers.EmbedTaskType) ([]float64, error) {
	args := m.Called(ctx, text, taskType)
	if v := args.Get(0); v != nil {
		return v.([]float64), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockGenerativeProvider) TranscribeAudio(ctx context.Context, audioPath, mimeType string) (string, error) {
	args := m.Called(ctx, audioPath, mimeType)
	return args.String(0), args.Error(1)
}

func newTestService() (*Service, *MockSpeechProvider, *MockGenerativeProvider) {
	sp := new(MockSpeechProvider)
	gp := new(MockGenerativeProvider)
	return NewService(sp, gp, zap.NewNop()), sp, gp
}

func TestIsTargetScript(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"ascii", "my paddy leaves are yellow", false},
		{"tamil", "நெல்", true},
		{"mixed", "paddy நெல் crop", true},
		{"hindi", "धान", false},
		{"block start", "஀", true},
		{"block end", "௿", true},
		{"just past block", "ఀ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTargetScript(tt.text))
		})
	}
}

func TestService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("tamil transcript is translated", func(t *testing.T) {
		svc, sp, _ := newTestService()
		sp.On("SpeechToText", ctx, "/tmp/a.wav", "ta-IN").Return("இலைகள் மஞ்சள்", nil)
		sp.On("Translate", ctx, "இலைகள் மஞ்சள்", "ta-IN", "en-IN").Return("Leaves yellow", nil)

		result, err := svc.Process(ctx, "/tmp/a.wav", "", "")

		require.NoError(t, err)
		assert.Equal(t, &ProcessResult{
			Transcript:     "இலைகள் மஞ்சள்",
			Translation:    "Leaves yellow",
			SourceLanguage: "ta-IN",
			TargetLanguage: "en-IN",
		}, result)
		sp.AssertExpectations(t)
	})

	t.Run("non-tamil transcript passes through", func(t *testing.T) {
		svc, sp, _ := newTestService()
		sp.On("SpeechToText", ctx, "/tmp/a.wav", "ta-IN").Return("pest on leaves", nil)

		result, err := svc.Process(ctx, "/tmp/a.wav", "ta-IN", "en-IN")

		require.NoError(t, err)
		assert.Equal(t, "pest on leaves", result.Translation)
		sp.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("blank transcript skips translation", func(t *testing.T) {
		svc, sp, _ := newTestService()
		sp.On("SpeechToText", ctx, "/tmp/a.wav", "ta-IN").Return("   ", nil)

		result, err := svc.Process(ctx, "/tmp/a.wav", "ta-IN", "en-IN")

		require.NoError(t, err)
		assert.Equal(t, "", result.Translation)
		sp.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("transcription failure stops pipeline", func(t *testing.T) {
		svc, sp, _ := newTestService()
		sp.On("SpeechToText", ctx, "/tmp/a.wav", "ta-IN").Return("", services.ErrCredentialsExhausted)

		_, err := svc.Process(ctx, "/tmp/a.wav", "ta-IN", "en-IN")

		assert.True(t, services.IsCredentialsExhaustedError(err))
	})
}

func TestService_TranscribeAudioTooLong(t *testing.T) {
	ctx := context.Background()
	svc, sp, _ := newTestService()
	upstream := providers.NewStatusError("sarvam", providers.OperationSTT, 400,
		[]byte(`{"error":{"message":"Audio duration greater than 30 seconds is not supported"}}`))
	sp.On("SpeechToText", ctx, "/tmp/long.wav", "ta-IN").Return("", upstream)

	_, err := svc.Transcribe(ctx, "/tmp/long.wav", "")

	require.Error(t, err)
	assert.True(t, services.IsValidationError(err))
	assert.ErrorIs(t, err, ErrAudioTooLong)
	assert.Contains(t, err.Error(), "Audio too long")

	var provErr *providers.ProviderError
	assert.True(t, errors.As(err, &provErr))
}

func TestService_Translate(t *testing.T) {
	ctx := context.Background()

	t.Run("blank input returns empty without call", func(t *testing.T) {
		svc, sp, _ := newTestService()

		out, err := svc.Translate(ctx, " \n", "ta-IN", "en-IN")

		require.NoError(t, err)
		assert.Equal(t, "", out)
		sp.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("fatal provider error surfaces unchanged", func(t *testing.T) {
		svc, sp, _ := newTestService()
		upstream := providers.NewStatusError("sarvam", providers.OperationTranslate, 500, []byte("boom"))
		sp.On("Translate", ctx, "வணக்கம்", "ta-IN", "en-IN").Return("", upstream)

		_, err := svc.Translate(ctx, "வணக்கம்", "", "")

		assert.Same(t, upstream, err)
	})
}

func TestService_Speak(t *testing.T) {
	ctx := context.Background()
	svc, sp, _ := newTestService()
	sp.On("TextToSpeech", ctx, "வணக்கம்", "ta-IN").Return([]byte("wav"), nil)

	audio, err := svc.Speak(ctx, "வணக்கம்", "")
	require.NoError(t, err)
	assert.Equal(t, []byte("wav"), audio)

	_, err = svc.Speak(ctx, "", "ta-IN")
	assert.True(t, services.IsValidationError(err))
}

func TestParseDetectedLanguage(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		transcript string
		language   string
	}{
		{"prefixed", "[Language: Tamil] வணக்கம் விவசாயி", "வணக்கம் விவசாயி", "Tamil"},
		{"code", "[Language: hi-IN]\nनमस्ते", "नमस्ते", "hi-IN"},
		{"no prefix", "hello farmer", "hello farmer", "Unknown"},
		{"prefix not at start", "text [Language: Tamil]", "text [Language: Tamil]", "Unknown"},
		{"empty", "", "", "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDetectedLanguage(tt.raw)
			assert.Equal(t, tt.transcript, got.Transcript)
			assert.Equal(t, tt.language, got.Language)
			assert.Equal(t, tt.raw, got.OriginalResponse)
		})
	}
}

func TestService_DetectAndTranscribe(t *testing.T) {
	ctx := context.Background()
	svc, _, gp := newTestService()
	gp.On("TranscribeAudio", ctx, "/tmp/v.m4a", "audio/mp4").Return("[Language: Tamil] மழை", nil)

	got, err := svc.DetectAndTranscribe(ctx, "/tmp/v.m4a", "audio/mp4")

	require.NoError(t, err)
	assert.Equal(t, "Tamil", got.Language)
	assert.Equal(t, "மழை", got.Transcript)
}

func TestStager_WithStagedFile(t *testing.T) {
	dir := t.TempDir()
	stager := NewStager(dir, 16)

	t.Run("file exists during callback and is removed after", func(t *testing.T) {
		var staged string
		err := stager.WithStagedFile(strings.NewReader("audio"), "clip.WAV", func(path string) error {
			staged = path
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, "audio", string(data))
			assert.True(t, strings.HasSuffix(path, ".wav"))
			return nil
		})

		require.NoError(t, err)
		_, statErr := os.Stat(staged)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("callback error passes through and file is removed", func(t *testing.T) {
		sentinel := errors.New("provider failed")
		var staged string
		err := stager.WithStagedFile(strings.NewReader("audio"), "clip.wav", func(path string) error {
			staged = path
			return sentinel
		})

		assert.Same(t, sentinel, err)
		_, statErr := os.Stat(staged)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("panic still removes file", func(t *testing.T) {
		var staged string
		assert.Panics(t, func() {
			_ = stager.WithStagedFile(strings.NewReader("audio"), "clip.wav", func(path string) error {
				staged = path
				panic("boom")
			})
		})
		_, statErr := os.Stat(staged)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("oversized and empty uploads are rejected", func(t *testing.T) {
		err := stager.WithStagedFile(strings.NewReader(strings.Repeat("x", 17)), "big.wav", func(string) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.True(t, services.IsValidationError(err))

		err = stager.WithStagedFile(strings.NewReader(""), "empty.wav", func(string) error {
			t.Fatal("callback must not run")
			return nil
		})
		assert.True(t, services.IsValidationError(err))

		entries, _ := os.ReadDir(dir)
		assert.Empty(t, entries)
	})
}
