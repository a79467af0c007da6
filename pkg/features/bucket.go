package features

import (
	"math"
	"sort"
	"sync"
)

// 模型架构常量：输入帧数经过卷积/池化步长链后的缩减
type reductionStep struct {
	size   int // 卷积核/池化窗口
	stride int
	pad    int
}

// 嵌入模型的固定缩减链。候选输入宽度必须在此链下产生正的输出帧数。
var reductionChain = []reductionStep{
	{size: 7, stride: 2, pad: 2}, // conv1
	{size: 3, stride: 2},         // pool1
	{size: 5, stride: 2, pad: 2}, // conv2
	{size: 3, stride: 2},         // pool2
	{size: 3, stride: 1, pad: 2}, // conv3
	{size: 3, stride: 1, pad: 2}, // conv4
	{size: 3, stride: 1, pad: 2}, // conv5
	{size: 3, stride: 2},         // pool5
	{size: 1, stride: 1},         // fc6
}

const (
	// BucketStepSeconds 候选时长步进（秒）
	BucketStepSeconds = 1
	// MaxSeconds 最大候选时长（秒）
	MaxSeconds = 10
	// FramesPerSecond 每秒输入帧数（由 10ms 帧移决定）
	FramesPerSecond = 100
)

// BucketTable 预计算的桶表：输入帧数 → 缩减后帧数。
// 仅保留缩减结果为正的候选；键按输入帧数单调递增。
type BucketTable struct {
	widths  []int       // 升序的候选输入帧数
	reduced map[int]int // 输入帧数 → 缩减后帧数
}

var (
	tableOnce   sync.Once
	sharedTable *BucketTable
)

// DefaultBucketTable 返回按架构常量预计算的共享桶表（只计算一次）
func DefaultBucketTable() *BucketTable {
	tableOnce.Do(func() {
		sharedTable = newBucketTable(MaxSeconds, BucketStepSeconds, FramesPerSecond)
	})
	return sharedTable
}

func newBucketTable(maxSec, stepSec, framesPerSec int) *BucketTable {
	t := &BucketTable{reduced: make(map[int]int)}
	endFrame := maxSec * framesPerSec
	stepFrame := stepSec * framesPerSec
	for in := 0; in <= endFrame; in += stepFrame {
		out := reduceFrames(in)
		if out > 0 {
			t.widths = append(t.widths, in)
			t.reduced[in] = out
		}
	}
	sort.Ints(t.widths)
	return t
}

// reduceFrames 模拟缩减链，返回输入帧数对应的输出帧数
func reduceFrames(frames int) int {
	s := float64(frames)
	for _, step := range reductionChain {
		s = math.Floor((s-float64(step.size)+float64(step.pad))/float64(step.stride)) + 1
	}
	return int(s)
}

// MinWidth 返回最小候选输入帧数
func (t *BucketTable) MinWidth() int { return t.widths[0] }

// MaxWidth 返回最大候选输入帧数
func (t *BucketTable) MaxWidth() int { return t.widths[len(t.widths)-1] }

// Widths 返回全部候选输入帧数（升序副本）
func (t *BucketTable) Widths() []int {
	out := make([]int, len(t.widths))
	copy(out, t.widths)
	return out
}

// Reduced 返回某候选宽度对应的缩减后帧数
func (t *BucketTable) Reduced(width int) (int, bool) {
	r, ok := t.reduced[width]
	return r, ok
}

// Fit 为实际观测帧数选择桶宽：
//   - 观测值不小于最小桶时，取不超过观测值的最大桶（截断多余内容）；
//   - 观测值小于最小桶时，取最小桶（调用方以重复内容补齐）。
func (t *BucketTable) Fit(frames int) int {
	if frames < t.MinWidth() {
		return t.MinWidth()
	}
	width := t.widths[0]
	for _, w := range t.widths {
		if w <= frames {
			width = w
		}
	}
	return width
}
