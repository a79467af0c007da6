package features

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/audio"
)

const (
	// FrameLenMillis 分析帧长（毫秒）
	FrameLenMillis = 25
	// FrameStepMillis 帧移（毫秒）
	FrameStepMillis = 10
	// NumFFT FFT 点数，同时是输出的频点数
	NumFFT = 512
	// 预加重系数
	preemphasisAlpha = 0.97
	// 归一化时的标准差下限，避免除零
	normEpsilon = 1e-12
)

// ErrTooShort 裁剪后的音频不足以构成一个分析帧
var ErrTooShort = fmt.Errorf("audio too short for feature extraction")

// Tensor 特征张量，时间为首轴：Data[t][f]，t ∈ [0, Frames)，f ∈ [0, NumFFT)
type Tensor struct {
	Data [][]float64
}

// Frames 返回时间帧数
func (t *Tensor) Frames() int { return len(t.Data) }

// Bins 返回频点数
func (t *Tensor) Bins() int {
	if len(t.Data) == 0 {
		return 0
	}
	return len(t.Data[0])
}

// Extractor 频谱特征提取器：波形 → 与嵌入模型架构兼容的定形张量。
// 帧长/帧移/FFT 点数由规范采样率固定导出。
type Extractor struct {
	table  *BucketTable
	logger *zap.Logger
}

// NewExtractor 创建特征提取器
func NewExtractor() *Extractor {
	return &Extractor{
		table:  DefaultBucketTable(),
		logger: zap.L().Named("features"),
	}
}

// Extract 提取特征张量。
// 流程：去直流 → 预加重 → 汉明窗分帧 → FFT 幅度谱 → 逐频点归一化 →
// 按桶表定宽（短则以自身内容平铺补齐，长则居中截断）→ 时间首轴输出。
func (e *Extractor) Extract(w *audio.Waveform) (*Tensor, error) {
	frameLen := w.SampleRate * FrameLenMillis / 1000
	frameStep := w.SampleRate * FrameStepMillis / 1000

	if len(w.Samples) < frameLen {
		return nil, ErrTooShort
	}

	signal := removeDC(w.Samples)
	signal = preemphasis(signal, preemphasisAlpha)

	numFrames := 1 + (len(signal)-frameLen)/frameStep
	window := hamming(frameLen)

	// frames × NumFFT 的幅度谱
	spec := make([][]float64, numFrames)
	frame := make([]float64, frameLen)
	for i := 0; i < numFrames; i++ {
		start := i * frameStep
		for j := 0; j < frameLen; j++ {
			frame[j] = signal[start+j] * window[j]
		}
		spec[i] = spectrumMagnitude(frame, NumFFT)
	}

	normalizeBins(spec)

	width := e.table.Fit(numFrames)
	spec = fitToWidth(spec, width)

	e.logger.Debug("features extracted",
		zap.Int("observed_frames", numFrames),
		zap.Int("bucket_width", width))

	return &Tensor{Data: spec}, nil
}

// removeDC 去除直流偏置
func removeDC(samples []float64) []float64 {
	var sum float64
	for _, s := range samples {
		sum += s
	}
	mean := sum / float64(len(samples))
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s - mean
	}
	return out
}

// preemphasis 一阶预加重：y[i] = x[i] − α·x[i−1]
func preemphasis(samples []float64, alpha float64) []float64 {
	out := make([]float64, len(samples))
	out[0] = samples[0]
	for i := 1; i < len(samples); i++ {
		out[i] = samples[i] - alpha*samples[i-1]
	}
	return out
}

func hamming(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return out
}

// normalizeBins 对每个频点沿时间轴做零均值单位方差归一化
func normalizeBins(spec [][]float64) {
	if len(spec) == 0 {
		return
	}
	frames := len(spec)
	bins := len(spec[0])
	for f := 0; f < bins; f++ {
		var sum float64
		for t := 0; t < frames; t++ {
			sum += spec[t][f]
		}
		mean := sum / float64(frames)

		var varSum float64
		for t := 0; t < frames; t++ {
			d := spec[t][f] - mean
			varSum += d * d
		}
		std := math.Sqrt(varSum / float64(frames))
		if std < normEpsilon {
			std = normEpsilon
		}
		for t := 0; t < frames; t++ {
			spec[t][f] = (spec[t][f] - mean) / std
		}
	}
}

// fitToWidth 将帧序列调整到目标宽度：
// 长则取居中的 width 帧，短则整段循环平铺直至填满。
func fitToWidth(spec [][]float64, width int) [][]float64 {
	n := len(spec)
	if n == width {
		return spec
	}
	if n > width {
		start := (n - width) / 2
		return spec[start : start+width]
	}
	out := make([][]float64, width)
	for i := range out {
		out[i] = spec[i%n]
	}
	return out
}
