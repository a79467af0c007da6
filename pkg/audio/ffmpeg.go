package audio

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os/exec"
	"strconv"
)

// ffmpegDecoder 兜底解码器：调用系统 ffmpeg 解码压缩格式
// （mp3/m4a/aac/ogg/wma/aiff/flac 等），直接输出规范采样率的单声道 f32le。
type ffmpegDecoder struct {
	binary     string
	targetRate int
}

func newFFmpegDecoder(targetRate int) *ffmpegDecoder {
	return &ffmpegDecoder{binary: "ffmpeg", targetRate: targetRate}
}

func (d *ffmpegDecoder) Name() string { return "ffmpeg" }

func (d *ffmpegDecoder) Decode(ctx context.Context, path string) (*RawAudio, error) {
	args := []string{
		"-hide_banner", "-v", "error",
		"-i", path,
		"-ac", "1",
		"-ar", strconv.Itoa(d.targetRate),
		"-f", "f32le",
		"pipe:1",
	}

	cmd := exec.CommandContext(ctx, d.binary, args...)
	var out bytes.Buffer
	var errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w (%s)", err, errBuf.String())
	}

	raw := out.Bytes()
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("ffmpeg output not aligned to f32le frames: %d bytes", len(raw))
	}
	n := len(raw) / 4
	if n == 0 {
		return nil, ErrEmptyAudio
	}

	data := make([]float64, n)
	for i := 0; i < n; i++ {
		u := uint32(raw[i*4]) | uint32(raw[i*4+1])<<8 | uint32(raw[i*4+2])<<16 | uint32(raw[i*4+3])<<24
		data[i] = float64(math.Float32frombits(u))
	}

	return &RawAudio{Data: data, Rate: d.targetRate, Channels: 1}, nil
}
