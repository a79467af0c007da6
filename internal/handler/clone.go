package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/response"
	"github.com/code-100-precent/LingVoice/pkg/voiceclone"
)

// CloneVoice 语音克隆：用认证通过者的音色回答问题。
// 令牌校验在中间件完成，这里再确认说话人仍在注册表中，
// 注册被删除后残留的令牌不能继续用。
func (h *Handlers) CloneVoice(c *gin.Context) {
	if h.cloneService == nil {
		response.Fail(c, http.StatusServiceUnavailable, "Voice clone service not configured", nil)
		return
	}

	speaker, ok := VerifiedSpeaker(c)
	if !ok {
		response.Fail(c, http.StatusUnauthorized, "Verification required", nil)
		return
	}

	enrolled, err := h.engine.HasUser(c.Request.Context(), speaker)
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	if !enrolled {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":  http.StatusUnauthorized,
			"msg":   "Speaker no longer enrolled: " + speaker,
			"error": "USER_NOT_FOUND",
			"data":  nil,
		})
		return
	}

	var req models.CloneVoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "Invalid request: "+err.Error(), nil)
		return
	}

	result, err := h.cloneService.Clone(c.Request.Context(), &voiceclone.CloneRequest{
		Speaker:  speaker,
		Question: req.Question,
	})
	if err != nil {
		response.Fail(c, http.StatusBadGateway, "Voice clone failed: "+err.Error(), nil)
		return
	}

	response.Success(c, "Voice cloned successfully", gin.H{
		"speaker":     result.Speaker,
		"answer":      result.Answer,
		"audio_data":  result.AudioData,
		"format":      result.Format,
		"sample_rate": result.SampleRate,
	})
}
