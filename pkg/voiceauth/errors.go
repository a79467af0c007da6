package voiceauth

import (
	"errors"
	"fmt"

	"github.com/code-100-precent/LingVoice/pkg/audio"
	"github.com/code-100-precent/LingVoice/pkg/embedding"
	"github.com/code-100-precent/LingVoice/pkg/enrollment"
	"github.com/code-100-precent/LingVoice/pkg/features"
)

// 声纹认证相关错误定义
var (
	ErrAudioTooShort  = fmt.Errorf("audio too short after silence trimming")
	ErrNoEnrollments  = fmt.Errorf("no enrolled users")
	ErrCloneNotReady  = fmt.Errorf("voice clone service not configured")
	ErrTokenInvalid   = fmt.Errorf("verification token invalid or expired")
	ErrInvalidRequest = fmt.Errorf("invalid request")
)

// AuthError 声纹认证错误类型
type AuthError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *AuthError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 错误构造函数
func ErrUnsupportedFormat(details string) error {
	return &AuthError{
		Code:    "UNSUPPORTED_FORMAT",
		Message: "Audio format not supported",
		Details: details,
	}
}

func ErrDecodeFailed(details string) error {
	return &AuthError{
		Code:    "DECODE_FAILURE",
		Message: "Failed to decode audio",
		Details: details,
	}
}

func ErrTooShort(details string) error {
	return &AuthError{
		Code:    "AUDIO_TOO_SHORT",
		Message: "Audio too short after silence trimming",
		Details: details,
	}
}

func ErrEmbeddingUnavailable(details string) error {
	return &AuthError{
		Code:    "EMBEDDING_UNAVAILABLE",
		Message: "Embedding service unavailable",
		Details: details,
	}
}

func ErrStorageIO(details string) error {
	return &AuthError{
		Code:    "STORAGE_IO",
		Message: "Enrollment storage failure",
		Details: details,
	}
}

func ErrBadInput(details string) error {
	return &AuthError{
		Code:    "INVALID_INPUT",
		Message: "Invalid input",
		Details: details,
	}
}

func ErrUnknownUser(name string) error {
	return &AuthError{
		Code:    "USER_NOT_FOUND",
		Message: fmt.Sprintf("User not enrolled: %s", name),
	}
}

// IsAuthError 检查是否为声纹认证错误
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// GetErrorCode 获取错误代码
func GetErrorCode(err error) string {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return "UNKNOWN_ERROR"
}

// wrapPipelineError 把底层包错误映射为带错误码的认证错误
func wrapPipelineError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, audio.ErrUnsupportedFormat):
		return ErrUnsupportedFormat(err.Error())
	case errors.Is(err, audio.ErrDecodeFailure), errors.Is(err, audio.ErrEmptyAudio),
		errors.Is(err, audio.ErrInvalidRate):
		return ErrDecodeFailed(err.Error())
	case errors.Is(err, features.ErrTooShort), errors.Is(err, ErrAudioTooShort):
		return ErrTooShort(err.Error())
	case errors.Is(err, embedding.ErrProviderUnavailable),
		errors.Is(err, embedding.ErrDimensionDrift),
		errors.Is(err, embedding.ErrInvalidTensor):
		return ErrEmbeddingUnavailable(err.Error())
	case errors.Is(err, enrollment.ErrUserNotFound):
		return &AuthError{Code: "USER_NOT_FOUND", Message: "User not enrolled"}
	case errors.Is(err, enrollment.ErrInvalidName),
		errors.Is(err, enrollment.ErrDimensionMismatch):
		return ErrBadInput(err.Error())
	case errors.Is(err, enrollment.ErrStorage):
		return ErrStorageIO(err.Error())
	default:
		return err
	}
}
