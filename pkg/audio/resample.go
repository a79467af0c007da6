package audio

import (
	"math"
)

// Resample 线性插值重采样。确定性算法：相同输入必得相同输出。
// 输出长度为 round(n·target/source)，时长误差不超过一个采样周期。
func Resample(samples []float64, sourceRate, targetRate int) []float64 {
	if sourceRate == targetRate || len(samples) == 0 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(targetRate) / float64(sourceRate)
	outLen := int(math.Round(float64(len(samples)) * ratio))
	if outLen == 0 {
		return nil
	}

	out := make([]float64, outLen)
	step := float64(sourceRate) / float64(targetRate)
	for i := range out {
		pos := float64(i) * step
		idx := int(pos)
		if idx >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(idx)
		out[i] = samples[idx]*(1-frac) + samples[idx+1]*frac
	}
	return out
}

// DownmixMono 将交错多声道采样平均混合为单声道。
// 策略为声道平均（而非取首声道），与转码路径保持一致。
func DownmixMono(data []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(data))
		copy(out, data)
		return out
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += data[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}
