package speech

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSampleRate = 16000

// encodeWAV writes 16-bit mono PCM produced by sample(i).
func encodeWAV(t *testing.T, seconds float64, sample func(i int) float64) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "clip.wav")
	f, err := os.Create(path)
	require.NoError(t, err)

	n := int(seconds * testSampleRate)
	data := make([]int, n)
	for i := range data {
		data[i] = int(math.Round(sample(i) * 32767))
	}

	enc := wav.NewEncoder(f, testSampleRate, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: testSampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	return out
}

func sine(amplitude, freq float64) func(int) float64 {
	return func(i int) float64 {
		return amplitude * math.Sin(2*math.Pi*freq*float64(i)/testSampleRate)
	}
}

func TestScoreWAV(t *testing.T) {
	t.Run("short clip", func(t *testing.T) {
		score, err := ScoreWAV(encodeWAV(t, 0.5, sine(0.5, 440)))
		require.NoError(t, err)
		assert.Equal(t, ShortClipScore, score)
	})

	t.Run("steady voiced tone", func(t *testing.T) {
		score, err := ScoreWAV(encodeWAV(t, 2, sine(0.5, 440)))
		require.NoError(t, err)
		assert.InDelta(t, 0.86, score, 0.03)
	})

	t.Run("silence", func(t *testing.T) {
		score, err := ScoreWAV(encodeWAV(t, 2, func(int) float64 { return 0 }))
		require.NoError(t, err)
		assert.Equal(t, 0.0, score)
	})

	t.Run("half silent scores lower", func(t *testing.T) {
		tone := sine(0.5, 440)
		half := func(i int) float64 {
			if i < testSampleRate {
				return tone(i)
			}
			return 0
		}

		full, err := ScoreWAV(encodeWAV(t, 2, tone))
		require.NoError(t, err)
		partial, err := ScoreWAV(encodeWAV(t, 2, half))
		require.NoError(t, err)
		assert.Less(t, partial, full)
		assert.GreaterOrEqual(t, partial, 0.0)
	})

	t.Run("not a wav", func(t *testing.T) {
		_, err := ScoreWAV([]byte("definitely not audio"))
		assert.Error(t, err)
	})
}

func TestWAVScorerFallsBack(t *testing.T) {
	scorer := NewWAVScorer()
	assert.Equal(t, UnreadableScore, scorer.Score([]byte{1, 2, 3}))
	assert.Equal(t, ShortClipScore, scorer.Score(encodeWAV(t, 0.2, sine(0.3, 200))))
}

func TestHTTPTranscriber(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			file, header, err := r.FormFile("file")
			if !assert.NoError(t, err) {
				return
			}
			defer file.Close()
			body, _ := io.ReadAll(file)
			assert.Equal(t, "answer.webm", header.Filename)
			assert.Equal(t, []byte("audio-bytes"), body)

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"text": "  I built a web app  "}`)
		}))
		defer server.Close()

		text, err := NewHTTPTranscriber(server.URL).Transcribe(context.Background(), []byte("audio-bytes"), "answer.webm")
		require.NoError(t, err)
		assert.Equal(t, "I built a web app", text)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := NewHTTPTranscriber(server.URL).Transcribe(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrTranscriptionUnavailable)
		assert.ErrorContains(t, err, "model not loaded")
	})

	t.Run("error payload", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"text": "", "error": "unsupported codec"}`)
		}))
		defer server.Close()

		_, err := NewHTTPTranscriber(server.URL).Transcribe(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrTranscriptionUnavailable)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewHTTPTranscriber("").Transcribe(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrTranscriptionUnavailable)
	})
}
