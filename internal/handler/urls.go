package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/pkg/config"
	"github.com/code-100-precent/LingVoice/pkg/middleware"
)

func (h *Handlers) Register(engine *gin.Engine) {
	r := engine.Group(config.GlobalConfig.Server.APIPrefix)

	// Register System Module Routes
	h.registerSystemRoutes(r)
	// Register Voice Identity Routes
	h.registerVoiceRoutes(r)
	// Register Clone Routes (token gated)
	h.registerCloneRoutes(r)
}

// registerSystemRoutes System Module
func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
		system.GET("/status", h.SystemStatus)
		system.GET("/middleware", h.MiddlewareStats)
	}
}

// registerVoiceRoutes 声纹注册与认证模块
func (h *Handlers) registerVoiceRoutes(r *gin.RouterGroup) {
	voice := r.Group("voice")
	{
		voice.POST("/enroll", h.Enroll)             // 注册声纹（上传音频）
		voice.POST("/authenticate", h.Authenticate) // 声纹认证
		voice.GET("/users", h.ListUsers)            // 已注册用户列表
		voice.DELETE("/users/:name", h.DeleteUser)  // 删除注册
	}
}

// registerCloneRoutes 语音克隆模块，只放行携带有效认证令牌的请求。
// 说话人维度限流要等令牌校验写入上下文后才有身份可用。
func (h *Handlers) registerCloneRoutes(r *gin.RouterGroup) {
	clone := r.Group("voice")
	clone.Use(h.VerificationRequired())
	clone.Use(middleware.SpeakerRateLimitMiddleware())
	{
		clone.POST("/clone-voice", h.CloneVoice)
	}
}
