package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/internal/models"
	"github.com/code-100-precent/LingVoice/pkg/response"
)

// ListUsers 获取已注册用户列表
func (h *Handlers) ListUsers(c *gin.Context) {
	names, err := h.engine.ListUsers(c.Request.Context())
	if err != nil {
		response.FailWithError(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	response.Success(c, "Success", models.UserListResponse{
		EnrolledUsers: names,
		Count:         len(names),
	})
}

// DeleteUser 删除注册记录
func (h *Handlers) DeleteUser(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		response.Fail(c, 400, "name is required", nil)
		return
	}

	if err := h.engine.DeleteUser(c.Request.Context(), name); err != nil {
		response.FailWithError(c, err)
		return
	}

	response.Success(c, "User removed", gin.H{"name": name})
}
