package handlers

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/audio"
	"github.com/code-100-precent/LingVoice/pkg/response"
)

// readUploadedAudio 读取上传的音频并落到请求级临时文件。
// 返回的 cleanup 必须在所有退出路径上调用。
func (h *Handlers) readUploadedAudio(c *gin.Context) (string, func(), bool) {
	file, header, err := c.Request.FormFile("audio_file")
	if err != nil {
		response.Fail(c, 400, "Failed to get audio file: "+err.Error(), nil)
		return "", nil, false
	}
	defer file.Close()

	if header.Size > h.maxUploadMB*1024*1024 {
		response.Fail(c, 400, "Audio file too large", nil)
		return "", nil, false
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !audio.IsSupportedFormat(header.Filename) {
		response.Fail(c, 400, "Unsupported audio format: "+ext+
			" (supported: "+strings.Join(audio.SupportedExtensions(), " ")+")", nil)
		return "", nil, false
	}

	data, err := io.ReadAll(file)
	if err != nil {
		response.Fail(c, 400, "Failed to read audio file: "+err.Error(), nil)
		return "", nil, false
	}

	path, cleanup, err := audio.WriteTemp(data, ext)
	if err != nil {
		response.Fail(c, 500, "Failed to stage audio file: "+err.Error(), nil)
		return "", nil, false
	}
	return path, cleanup, true
}

// Enroll 注册声纹（上传音频）
func (h *Handlers) Enroll(c *gin.Context) {
	name := c.PostForm("name")
	if name == "" {
		response.Fail(c, 400, "name is required", nil)
		return
	}

	path, cleanup, ok := h.readUploadedAudio(c)
	if !ok {
		return
	}
	defer cleanup()

	result, err := h.engine.Enroll(c.Request.Context(), name, audio.FileInput(path))
	if err != nil {
		response.FailWithError(c, err)
		return
	}

	response.Success(c, "Voice enrolled successfully", models.EnrollResponse{
		Name:           result.Name,
		OriginalFormat: strings.TrimPrefix(filepath.Ext(path), "."),
		CreatedAt:      result.CreatedAt,
	})
}
