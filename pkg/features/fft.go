package features

import (
	"math"
	"math/bits"
)

// fft 迭代式 radix-2 FFT，n 必须为 2 的幂。
// 输入为实数帧（不足 n 自动补零），返回长度 n 的复数频谱。
func fft(frame []float64, n int) (re, im []float64) {
	re = make([]float64, n)
	im = make([]float64, n)
	copy(re, frame)

	// 位反转重排
	shift := 64 - uint(bits.TrailingZeros(uint(n)))
	for i := 0; i < n; i++ {
		j := int(bits.Reverse64(uint64(i)) >> shift)
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size >> 1
		angle := -2 * math.Pi / float64(size)
		wr := math.Cos(angle)
		wi := math.Sin(angle)
		for start := 0; start < n; start += size {
			cr, ci := 1.0, 0.0
			for k := 0; k < half; k++ {
				i0 := start + k
				i1 := start + k + half
				tr := cr*re[i1] - ci*im[i1]
				ti := cr*im[i1] + ci*re[i1]
				re[i1] = re[i0] - tr
				im[i1] = im[i0] - ti
				re[i0] += tr
				im[i0] += ti
				cr, ci = cr*wr-ci*wi, cr*wi+ci*wr
			}
		}
	}
	return re, im
}

// spectrumMagnitude 返回帧的 n 点 FFT 幅度谱（全部 n 个频点）
func spectrumMagnitude(frame []float64, n int) []float64 {
	re, im := fft(frame, n)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Hypot(re[i], im[i])
	}
	return out
}
