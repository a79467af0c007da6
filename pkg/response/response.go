package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
)

type Response struct {
	Code    int         `json:"code"` // 状态码，通常为 200 表示成功，非 200 为错误码
	Message string      `json:"msg"`  // 响应的消息描述
	Data    interface{} `json:"data"` // 返回的数据，可以是任意类型
}

func Success(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  msg,
		"data": data,
	})
}

func Fail(c *gin.Context, httpStatus int, msg string, data interface{}) {
	c.JSON(httpStatus, gin.H{
		"code": httpStatus,
		"msg":  msg,
		"data": data,
	})
}

func Result(context *gin.Context, httpStatus int, code int, msg string, data gin.H) {
	context.JSON(httpStatus, gin.H{
		"code": code,
		"msg":  msg,
		"data": data,
	})
}

func AbortWithStatus(c *gin.Context, httpStatus int) {
	c.AbortWithStatus(httpStatus)
}

// errorStatus 错误码到 HTTP 状态码的映射
var errorStatus = map[string]int{
	"UNSUPPORTED_FORMAT":    http.StatusBadRequest,
	"DECODE_FAILURE":        http.StatusBadRequest,
	"AUDIO_TOO_SHORT":       http.StatusBadRequest,
	"INVALID_INPUT":         http.StatusBadRequest,
	"USER_NOT_FOUND":        http.StatusNotFound,
	"EMBEDDING_UNAVAILABLE": http.StatusServiceUnavailable,
	"STORAGE_IO":            http.StatusInternalServerError,
}

// FailWithError 按认证错误类型生成统一错误响应
func FailWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "UNKNOWN_ERROR"
	msg := err.Error()

	var ae *voiceauth.AuthError
	if errors.As(err, &ae) {
		code = ae.Code
		msg = ae.Message
		if s, ok := errorStatus[ae.Code]; ok {
			status = s
		}
	}

	c.JSON(status, gin.H{
		"code":  status,
		"msg":   msg,
		"error": code,
		"data":  nil,
	})
}

// AbortWithStatusJSON 中断请求并返回错误响应
func AbortWithStatusJSON(c *gin.Context, httpStatus int, err error) {
	errorCode := "UNKNOWN_ERROR"
	if errors.Is(err, voiceauth.ErrTokenInvalid) {
		errorCode = "TOKEN_INVALID"
	}

	c.AbortWithStatusJSON(httpStatus, gin.H{
		"code":  httpStatus,
		"msg":   err.Error(),
		"error": errorCode,
		"data":  nil,
	})
}
