package vad

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-100-precent/LingVoice/pkg/audio"
)

func tone(seconds float64, amplitude float64) []float64 {
	n := int(seconds * audio.CanonicalRate)
	out := make([]float64, n)
	for i := range out {
		out[i] = amplitude * math.Sin(2*math.Pi*440*float64(i)/audio.CanonicalRate)
	}
	return out
}

func silence(seconds float64) []float64 {
	return make([]float64, int(seconds*audio.CanonicalRate))
}

func waveform(segments ...[]float64) *audio.Waveform {
	var samples []float64
	for _, seg := range segments {
		samples = append(samples, seg...)
	}
	return &audio.Waveform{Samples: samples, SampleRate: audio.CanonicalRate}
}

func TestRMSDetector_IsVoice(t *testing.T) {
	d := NewRMSDetector()

	assert.False(t, d.IsVoice(nil))
	assert.False(t, d.IsVoice([]int16{}))

	// All-zero frame is silence
	assert.False(t, d.IsVoice(make([]int16, 480)))

	// Loud frame is voice
	loud := make([]int16, 480)
	for i := range loud {
		loud[i] = int16(10000 * math.Sin(float64(i)*0.2))
	}
	assert.True(t, d.IsVoice(loud))

	// Very quiet frame stays below the threshold
	quiet := make([]int16, 480)
	for i := range quiet {
		quiet[i] = int16(100 * math.Sin(float64(i)*0.2))
	}
	assert.False(t, d.IsVoice(quiet))
}

func TestRMSDetector_Stateless(t *testing.T) {
	d := NewRMSDetector()
	frame := make([]int16, 480)
	for i := range frame {
		frame[i] = int16(5000 * math.Sin(float64(i)*0.2))
	}

	first := d.IsVoice(frame)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, d.IsVoice(frame))
	}
}

func TestQuantizePCM(t *testing.T) {
	out := QuantizePCM([]float64{0, 0.5, -0.5, 1.0, -1.0})
	require.Len(t, out, 5)
	assert.Equal(t, int16(0), out[0])
	assert.Equal(t, int16(16384), out[1]) // round(0.5 * 32767)
	assert.Equal(t, int16(-16384), out[2])
	assert.Equal(t, int16(32767), out[3])
	assert.Equal(t, int16(-32767), out[4])
}

func TestQuantizePCM_Clamping(t *testing.T) {
	out := QuantizePCM([]float64{2.0, -2.0})
	assert.Equal(t, int16(32767), out[0])
	assert.Equal(t, int16(-32768), out[1])
}

func TestTrimmer_PureToneKept(t *testing.T) {
	tr := NewTrimmer(nil)
	w := waveform(tone(1, 0.5))

	out := tr.Trim(w)
	assert.Equal(t, audio.CanonicalRate, out.SampleRate)
	// Everything is voiced, only the partial tail window is dropped
	assert.Greater(t, out.Len(), int(0.9*float64(w.Len())))
	assert.LessOrEqual(t, out.Len(), w.Len())
}

func TestTrimmer_AllSilenceRemoved(t *testing.T) {
	tr := NewTrimmer(nil)
	w := waveform(silence(2))

	out := tr.Trim(w)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, audio.CanonicalRate, out.SampleRate)
}

func TestTrimmer_SubWindowInput(t *testing.T) {
	tr := NewTrimmer(nil)

	// Fewer samples than one detection window
	w := &audio.Waveform{Samples: tone(0.01, 0.5), SampleRate: audio.CanonicalRate}
	out := tr.Trim(w)
	assert.Equal(t, 0, out.Len())
}

func TestTrimmer_InteriorSilenceRemoved(t *testing.T) {
	tr := NewTrimmer(nil)
	w := waveform(tone(1, 0.5), silence(3), tone(1, 0.5))

	out := tr.Trim(w)
	assert.Less(t, out.Len(), w.Len())
	// Both speech segments survive
	assert.Greater(t, out.Len(), int(1.5*audio.CanonicalRate))
}

func TestTrimmer_OutputNeverLonger(t *testing.T) {
	tr := NewTrimmer(nil)

	inputs := []*audio.Waveform{
		waveform(tone(0.5, 0.5)),
		waveform(silence(1), tone(1, 0.5)),
		waveform(tone(1, 0.5), silence(1)),
		waveform(silence(0.5), tone(0.3, 0.3), silence(0.5)),
	}
	for _, w := range inputs {
		out := tr.Trim(w)
		assert.LessOrEqual(t, out.Len(), w.Len())
	}
}

func TestTrimmer_Idempotent(t *testing.T) {
	tr := NewTrimmer(nil)
	w := waveform(silence(1), tone(1, 0.5), silence(1))

	once := tr.Trim(w)
	twice := tr.Trim(once)
	assert.Equal(t, once.Len(), twice.Len())
}

func TestTrimmer_Deterministic(t *testing.T) {
	tr := NewTrimmer(nil)
	w := waveform(silence(0.5), tone(1, 0.4), silence(0.7), tone(0.5, 0.3))

	a := tr.Trim(w)
	b := tr.Trim(w)
	assert.Equal(t, a.Samples, b.Samples)
}

func TestMovingAverage(t *testing.T) {
	out := movingAverage([]float64{1, 1, 1, 1, 1}, 7)
	require.Len(t, out, 5)
	// Center element sees 5 ones out of width 7 (zero padded)
	assert.InDelta(t, 5.0/7.0, out[2], 1e-12)
}

func TestDilate(t *testing.T) {
	mask := []bool{false, false, false, true, false, false, false}
	out := dilate(mask, 7)
	// Radius 3 spreads the single true across the whole mask
	for i, v := range out {
		assert.True(t, v, "index %d", i)
	}

	mask = []bool{true, false, false, false, false, false, false, false}
	out = dilate(mask, 7)
	assert.True(t, out[3])
	assert.False(t, out[4])
}
