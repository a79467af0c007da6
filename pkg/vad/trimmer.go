package vad

import (
	"go.uber.org/zap"

	"github.com/code-100-precent/LingVoice/pkg/audio"
)

const (
	// WindowMillis 检测窗口宽度（毫秒）
	WindowMillis = 30
	// 平滑移动平均宽度（必须为奇数）
	smoothWidth = 7
	// 掩码膨胀的结构元长度：最大静音窗口数 + 1
	dilationLength = 6 + 1
)

// Trimmer 静音裁剪器：按固定窗口做语音活动检测，
// 平滑、膨胀检测掩码后只保留语音窗口对应的采样。
// 输出长度恒不超过输入；对已裁剪信号再次裁剪不再缩短。
type Trimmer struct {
	detector Detector
	logger   *zap.Logger
}

// NewTrimmer 创建静音裁剪器，detector 为 nil 时使用默认能量检测器
func NewTrimmer(detector Detector) *Trimmer {
	if detector == nil {
		detector = NewRMSDetector()
	}
	return &Trimmer{
		detector: detector,
		logger:   zap.L().Named("vad"),
	}
}

// Trim 去除波形中的长静音区段，保留区段按原时间顺序直接拼接
func (t *Trimmer) Trim(w *audio.Waveform) *audio.Waveform {
	samplesPerWindow := w.SampleRate * WindowMillis / 1000

	// 截去不足一个窗口的尾部；输入不足一个窗口时输出为空
	usable := len(w.Samples) - len(w.Samples)%samplesPerWindow
	if usable == 0 {
		return &audio.Waveform{Samples: nil, SampleRate: w.SampleRate}
	}
	samples := w.Samples[:usable]
	pcm := QuantizePCM(samples)

	numWindows := usable / samplesPerWindow
	flags := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		frame := pcm[i*samplesPerWindow : (i+1)*samplesPerWindow]
		if t.detector.IsVoice(frame) {
			flags[i] = 1
		}
	}

	mask := movingAverage(flags, smoothWidth)
	binMask := make([]bool, numWindows)
	for i, v := range mask {
		binMask[i] = v >= 0.5
	}
	binMask = dilate(binMask, dilationLength)

	kept := make([]float64, 0, usable)
	voiced := 0
	for i, keep := range binMask {
		if keep {
			kept = append(kept, samples[i*samplesPerWindow:(i+1)*samplesPerWindow]...)
			voiced++
		}
	}

	t.logger.Debug("silence trimmed",
		zap.Int("windows", numWindows),
		zap.Int("voiced", voiced),
		zap.Int("in_samples", len(w.Samples)),
		zap.Int("out_samples", len(kept)))

	return &audio.Waveform{Samples: kept, SampleRate: w.SampleRate}
}

// movingAverage 居中移动平均，两端补零：前 (width-1)/2、后 width/2
func movingAverage(values []float64, width int) []float64 {
	padded := make([]float64, (width-1)/2+len(values)+width/2)
	copy(padded[(width-1)/2:], values)

	cum := make([]float64, len(padded)+1)
	for i, v := range padded {
		cum[i+1] = cum[i] + v
	}

	out := make([]float64, len(values))
	for i := range out {
		out[i] = (cum[i+width] - cum[i]) / float64(width)
	}
	return out
}

// dilate 一维二值膨胀：任一 true 在 length 为宽的结构元内传播
func dilate(mask []bool, length int) []bool {
	radius := length / 2
	out := make([]bool, len(mask))
	for i := range mask {
		if !mask[i] {
			continue
		}
		lo := i - radius
		if lo < 0 {
			lo = 0
		}
		hi := i + radius
		if hi > len(mask)-1 {
			hi = len(mask) - 1
		}
		for j := lo; j <= hi; j++ {
			out[j] = true
		}
	}
	return out
}
