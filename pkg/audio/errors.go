package audio

import (
	"fmt"
)

// 音频解码相关错误定义
var (
	ErrUnsupportedFormat = fmt.Errorf("unsupported audio format")
	ErrDecodeFailure     = fmt.Errorf("failed to decode audio")
	ErrEmptyAudio        = fmt.Errorf("audio contains no samples")
	ErrInvalidRate       = fmt.Errorf("invalid sample rate")
)

// DecodeError 解码错误，记录整条解码链各解码器的失败原因
type DecodeError struct {
	Path     string
	Attempts map[string]string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("all decoders failed for %s: %v", e.Path, e.Attempts)
}

func (e *DecodeError) Unwrap() error {
	return ErrDecodeFailure
}
