package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/audio"
	"github.com/code-100-precent/LingVoice/pkg/response"
)

// Authenticate 声纹认证
func (h *Handlers) Authenticate(c *gin.Context) {
	path, cleanup, ok := h.readUploadedAudio(c)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.engine.Authenticate(c.Request.Context(), audio.FileInput(path))
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	if result.NoEnrollments {
		response.Success(c, "No users enrolled", models.AuthenticateResponse{
			Authenticated: false,
			Message:       "No users enrolled. Please enroll a voice first.",
		})
		return
	}

	resp := models.AuthenticateResponse{
		Authenticated: result.Authenticated,
		ClosestMatch:  result.ClosestMatch,
		Distance:      &result.Distance,
		AllDistances:  result.AllDistances,
		Threshold:     &result.Threshold,
	}

	if result.Authenticated {
		resp.RecognizedUser = result.RecognizedUser
		resp.Confidence = &result.Confidence
		resp.Token = result.Token
		resp.Message = fmt.Sprintf("Voice verified as %s", result.RecognizedUser)
	} else if result.WithinGeneral {
		// 落入宽松参考阈值但未达到接受判据，只提示不放行
		resp.Message = fmt.Sprintf(
			"Voice similar to %s (distance %.4f) but does not meet the verification criterion",
			result.ClosestMatch, result.Distance)
	} else {
		resp.Message = "Voice not recognized"
	}

	response.Success(c, "Authentication completed", resp)
}
