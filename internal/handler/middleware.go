package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/pkg/response"
	"github.com/code-100-precent/LingVoice/pkg/voiceauth"
)

const speakerContextKey = "verified_speaker"

// VerificationRequired 校验 Bearer 令牌，只放行声纹认证通过的请求。
// 校验通过后把注册名写入上下文，供克隆端点取用。
func (h *Handlers) VerificationRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
			response.AbortWithStatusJSON(c, http.StatusUnauthorized, voiceauth.ErrTokenInvalid)
			return
		}

		speaker, err := h.engine.Tokens().Verify(strings.TrimPrefix(raw, "Bearer "))
		if err != nil {
			response.AbortWithStatusJSON(c, http.StatusUnauthorized, err)
			return
		}

		c.Set(speakerContextKey, speaker)
		c.Next()
	}
}

// VerifiedSpeaker 从上下文取出认证通过的注册名
func VerifiedSpeaker(c *gin.Context) (string, bool) {
	v, ok := c.Get(speakerContextKey)
	if !ok {
		return "", false
	}
	name, ok := v.(string)
	return name, ok
}
