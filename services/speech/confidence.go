package speech

import (
	"bytes"
	"fmt"
	"math"

	"interviewer/logger"

	"github.com/go-audio/wav"
)

const (
	// ShortClipScore is returned for clips under a second.
	ShortClipScore = 0.2
	// UnreadableScore is returned when the audio cannot be decoded.
	UnreadableScore = 0.5

	frameLength = 2048
	hopLength   = 512
	// frames quieter than this relative to the loudest frame count as silence
	silenceThresholdDB = -30.0
)

// feature weights; they sum to 1
const (
	weightEnergy     = 0.375
	weightZeroCross  = 0.25
	weightSpeechRate = 0.25
	weightSilence    = 0.125
)

// ConfidenceScorer rates how confident a spoken answer sounds, in [0,1].
type ConfidenceScorer interface {
	Score(audio []byte) float64
}

// WAVScorer scores PCM WAV recordings from signal features only.
type WAVScorer struct{}

func NewWAVScorer() *WAVScorer {
	return &WAVScorer{}
}

func (WAVScorer) Score(audio []byte) float64 {
	score, err := ScoreWAV(audio)
	if err != nil {
		logger.Warnf("Failed to score audio confidence: %v", err)
		return UnreadableScore
	}
	return score
}

// Features are the per-clip measurements the score is built from.
type Features struct {
	Duration      float64
	RMS           float64
	ZeroCrossRate float64
	SpeakingRatio float64
}

// ScoreWAV decodes a WAV clip and returns its confidence score rounded to two
// decimals.
func ScoreWAV(audio []byte) (float64, error) {
	samples, sampleRate, err := decodeMono(audio)
	if err != nil {
		return 0, err
	}

	duration := float64(len(samples)) / float64(sampleRate)
	if duration < 1.0 {
		return ShortClipScore, nil
	}

	return scoreFeatures(extractFeatures(samples, sampleRate)), nil
}

func scoreFeatures(f Features) float64 {
	energyScore := math.Min(f.RMS*80, 1.0)
	zcrScore := math.Min(f.ZeroCrossRate*8, 1.0)
	speechRateScore := math.Min(f.SpeakingRatio*2, 1.0)
	silencePenalty := 1 - math.Min((1-f.SpeakingRatio)*2, 1.0)

	confidence := weightEnergy*energyScore +
		weightZeroCross*zcrScore +
		weightSpeechRate*speechRateScore +
		weightSilence*silencePenalty

	return math.Round(confidence*100) / 100
}

func extractFeatures(samples []float64, sampleRate int) Features {
	frames := frameRanges(len(samples))

	frameRMS := make([]float64, len(frames))
	var rmsSum, zcrSum, loudest float64
	for i, fr := range frames {
		frame := samples[fr[0]:fr[1]]
		frameRMS[i] = rms(frame)
		rmsSum += frameRMS[i]
		zcrSum += zeroCrossRate(frame)
		loudest = math.Max(loudest, frameRMS[i])
	}

	voiced := 0
	if loudest > 0 {
		for _, r := range frameRMS {
			if r > 0 && 20*math.Log10(r/loudest) >= silenceThresholdDB {
				voiced++
			}
		}
	}

	n := float64(len(frames))
	return Features{
		Duration:      float64(len(samples)) / float64(sampleRate),
		RMS:           rmsSum / n,
		ZeroCrossRate: zcrSum / n,
		SpeakingRatio: float64(voiced) / n,
	}
}

func frameRanges(n int) [][2]int {
	if n <= frameLength {
		return [][2]int{{0, n}}
	}
	var frames [][2]int
	for start := 0; start+frameLength <= n; start += hopLength {
		frames = append(frames, [2]int{start, start + frameLength})
	}
	return frames
}

func rms(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func zeroCrossRate(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if math.Signbit(frame[i]) != math.Signbit(frame[i-1]) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

// decodeMono returns the clip as mono samples in [-1,1].
func decodeMono(audio []byte) ([]float64, int, error) {
	decoder := wav.NewDecoder(bytes.NewReader(audio))
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("not a valid WAV file")
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode PCM data: %w", err)
	}

	channels := buf.Format.NumChannels
	sampleRate := buf.Format.SampleRate
	if channels < 1 || sampleRate < 1 {
		return nil, 0, fmt.Errorf("invalid WAV format: %d channels at %d Hz", channels, sampleRate)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth < 8 || bitDepth > 32 {
		return nil, 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
	scale := math.Exp2(float64(bitDepth - 1))
	// 8-bit WAV is unsigned
	offset := 0.0
	if bitDepth == 8 {
		offset = scale
	}

	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(buf.Data[i*channels+c]) - offset) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return samples, sampleRate, nil
}
