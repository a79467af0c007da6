package vad

import (
	"math"
)

const int16Max = 1<<15 - 1

// Detector 逐窗语音活动检测器。输入为 16 位 PCM 量化后的单个窗口，
// 输出该窗口是否包含语音。实现必须无状态（同一窗口重复判定结果一致），
// 否则静音裁剪无法满足幂等性。
type Detector interface {
	IsVoice(frame []int16) bool
}

// RMSDetector 基于 RMS 能量的纯 Go 检测器。
type RMSDetector struct {
	// Threshold 归一化 RMS 激活阈值，超过视为语音
	Threshold float64
}

// NewRMSDetector 创建默认阈值的能量检测器（适用于 16kHz、30ms 窗口）
func NewRMSDetector() *RMSDetector {
	return &RMSDetector{Threshold: 0.010}
}

// IsVoice 判断窗口是否为语音
func (d *RMSDetector) IsVoice(frame []int16) bool {
	if len(frame) == 0 {
		return false
	}
	var sum float64
	for _, s := range frame {
		v := float64(s) / int16Max
		sum += v * v
	}
	return math.Sqrt(sum/float64(len(frame))) >= d.Threshold
}

// QuantizePCM 将浮点采样量化为 16 位 PCM：乘 int16 最大值、四舍五入并截断
func QuantizePCM(samples []float64) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := math.Round(s * int16Max)
		if v > int16Max {
			v = int16Max
		} else if v < -int16Max-1 {
			v = -int16Max - 1
		}
		out[i] = int16(v)
	}
	return out
}
