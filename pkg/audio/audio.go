package audio

import (
	"math"
)

// CanonicalRate 规范采样率，所有下游处理都以此为准
const CanonicalRate = 16000

// Waveform 单声道浮点采样序列
type Waveform struct {
	Samples    []float64
	SampleRate int
}

// Duration 返回波形时长（秒）
func (w *Waveform) Duration() float64 {
	if w.SampleRate <= 0 {
		return 0
	}
	return float64(len(w.Samples)) / float64(w.SampleRate)
}

// Len 返回采样点数量
func (w *Waveform) Len() int {
	return len(w.Samples)
}

// RMS 返回波形的均方根幅度
func (w *Waveform) RMS() float64 {
	if len(w.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range w.Samples {
		sum += s * s
	}
	return math.Sqrt(sum / float64(len(w.Samples)))
}

// InputKind 音频输入类型
type InputKind int

const (
	KindFile InputKind = iota // 磁盘文件路径
	KindBuffer                // 内存采样缓冲
)

// Input 音频输入的显式标签变体：文件路径或内存缓冲。
// 调用方通过构造函数指明类型，规范化器按类型分派，不做类型嗅探。
type Input struct {
	kind    InputKind
	path    string
	samples []float64
	rate    int
}

// FileInput 构造文件路径输入
func FileInput(path string) Input {
	return Input{kind: KindFile, path: path}
}

// BufferInput 构造内存缓冲输入，rate 为缓冲的源采样率
func BufferInput(samples []float64, rate int) Input {
	return Input{kind: KindBuffer, samples: samples, rate: rate}
}

// Kind 返回输入类型
func (in Input) Kind() InputKind { return in.kind }

// Path 返回文件路径（仅 KindFile 有效）
func (in Input) Path() string { return in.path }
