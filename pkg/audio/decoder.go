package audio

import (
	"context"
	"fmt"
	"io"
	"os"

	gowav "github.com/go-audio/wav"
	youpywav "github.com/youpy/go-wav"
)

// RawAudio 解码器输出的原始 PCM 数据（可能多声道、任意采样率）
type RawAudio struct {
	Data     []float64 // 交错排列的采样
	Rate     int
	Channels int
}

// Decoder 单个音频解码器。解码链按优先级依次尝试，返回第一个成功结果。
type Decoder interface {
	// Name 返回解码器名称（用于日志与错误报告）
	Name() string

	// Decode 解码文件为原始 PCM
	Decode(ctx context.Context, path string) (*RawAudio, error)
}

// wavDecoder 主 WAV 解码器，基于 go-audio/wav
type wavDecoder struct{}

func (d *wavDecoder) Name() string { return "go-audio/wav" }

func (d *wavDecoder) Decode(ctx context.Context, path string) (*RawAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	dec := gowav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("read pcm: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrEmptyAudio
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	data := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		data[i] = float64(v) / scale
	}

	return &RawAudio{
		Data:     data,
		Rate:     buf.Format.SampleRate,
		Channels: buf.Format.NumChannels,
	}, nil
}

// wavFallbackDecoder 次级 WAV 解码器，基于 youpy/go-wav。
// 对部分非标准 WAV 头的容忍度更高。
type wavFallbackDecoder struct{}

func (d *wavFallbackDecoder) Name() string { return "youpy/go-wav" }

func (d *wavFallbackDecoder) Decode(ctx context.Context, path string) (*RawAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav file: %w", err)
	}
	defer f.Close()

	reader := youpywav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("read wav format: %w", err)
	}

	channels := int(format.NumChannels)
	var data []float64
	for {
		samples, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read samples: %w", err)
		}
		for _, s := range samples {
			for c := 0; c < channels; c++ {
				data = append(data, reader.FloatValue(s, uint(c)))
			}
		}
	}

	if len(data) == 0 {
		return nil, ErrEmptyAudio
	}

	return &RawAudio{
		Data:     data,
		Rate:     int(format.SampleRate),
		Channels: channels,
	}, nil
}
