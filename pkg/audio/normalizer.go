package audio

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 允许的输入容器格式（按扩展名判定，先于解码检查）
var allowedExtensions = map[string]bool{
	".wav":  true,
	".flac": true,
	".mp3":  true,
	".m4a":  true,
	".aac":  true,
	".ogg":  true,
	".wma":  true,
	".aif":  true,
	".aiff": true,
}

// SupportedExtensions 返回允许的扩展名列表（排序稳定，用于错误提示）
func SupportedExtensions() []string {
	return []string{".wav", ".flac", ".mp3", ".m4a", ".aac", ".ogg", ".wma", ".aif", ".aiff"}
}

// IsSupportedFormat 判断文件名是否在允许格式内
func IsSupportedFormat(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// 音量归一化目标（dBFS）。只提升不衰减，与训练时的预处理一致。
const volumeTargetDBFS = -30.0

// Normalizer 音频规范化器：任意输入 → 规范采样率的单声道波形。
// 文件输入走解码链（按优先级尝试，取第一个成功结果），
// 内存输入直接走重采样与混音。
type Normalizer struct {
	decoders   []Decoder
	targetRate int
	logger     *zap.Logger
}

// NewNormalizer 创建规范化器，解码链顺序固定：
// go-audio/wav → youpy/go-wav → ffmpeg
func NewNormalizer() *Normalizer {
	return &Normalizer{
		decoders: []Decoder{
			&wavDecoder{},
			&wavFallbackDecoder{},
			newFFmpegDecoder(CanonicalRate),
		},
		targetRate: CanonicalRate,
		logger:     zap.L().Named("audio"),
	}
}

// Normalize 将输入规范化为 16kHz 单声道波形
func (n *Normalizer) Normalize(ctx context.Context, in Input) (*Waveform, error) {
	switch in.Kind() {
	case KindFile:
		return n.normalizeFile(ctx, in.path)
	case KindBuffer:
		return n.normalizeBuffer(in.samples, in.rate)
	default:
		return nil, fmt.Errorf("unknown input kind %d", in.Kind())
	}
}

func (n *Normalizer) normalizeFile(ctx context.Context, path string) (*Waveform, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("%w: %s (supported: %s)",
			ErrUnsupportedFormat, filepath.Ext(path), strings.Join(SupportedExtensions(), " "))
	}

	attempts := make(map[string]string, len(n.decoders))
	for _, dec := range n.decoders {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw, err := dec.Decode(ctx, path)
		if err != nil {
			attempts[dec.Name()] = err.Error()
			n.logger.Debug("decoder failed, trying next",
				zap.String("decoder", dec.Name()),
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		n.logger.Debug("audio decoded",
			zap.String("decoder", dec.Name()),
			zap.Int("rate", raw.Rate),
			zap.Int("channels", raw.Channels),
			zap.Int("samples", len(raw.Data)))
		return n.finalize(raw)
	}

	return nil, &DecodeError{Path: path, Attempts: attempts}
}

func (n *Normalizer) normalizeBuffer(samples []float64, rate int) (*Waveform, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, rate)
	}
	if len(samples) == 0 {
		return nil, ErrEmptyAudio
	}
	return n.finalize(&RawAudio{Data: samples, Rate: rate, Channels: 1})
}

func (n *Normalizer) finalize(raw *RawAudio) (*Waveform, error) {
	if raw.Rate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRate, raw.Rate)
	}

	mono := DownmixMono(raw.Data, raw.Channels)
	if raw.Rate != n.targetRate {
		mono = Resample(mono, raw.Rate, n.targetRate)
	}
	if len(mono) == 0 {
		return nil, ErrEmptyAudio
	}

	mono = normalizeVolume(mono, volumeTargetDBFS)

	return &Waveform{Samples: mono, SampleRate: n.targetRate}, nil
}

// normalizeVolume 将波形提升到目标 dBFS，只提升不衰减
func normalizeVolume(samples []float64, targetDBFS float64) []float64 {
	var sum float64
	for _, s := range samples {
		sum += s * s
	}
	mean := sum / float64(len(samples))
	if mean <= 0 {
		return samples
	}

	change := targetDBFS - 10*math.Log10(mean)
	if change < 0 {
		return samples
	}

	gain := math.Pow(10, change/20)
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s * gain
	}
	return out
}

// WriteTemp 将上传的音频字节写入请求级临时文件，文件名含 UUID，
// 并发请求不会冲突。返回的 cleanup 必须在所有退出路径上调用。
func WriteTemp(data []byte, ext string) (string, func(), error) {
	if ext == "" || !strings.HasPrefix(ext, ".") {
		ext = ".bin"
	}
	path := filepath.Join(os.TempDir(), "lingvoice-"+uuid.NewString()+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", nil, fmt.Errorf("write temp audio: %w", err)
	}
	cleanup := func() {
		_ = os.Remove(path)
	}
	return path, cleanup, nil
}
