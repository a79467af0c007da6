package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/code-100-precent/LingVoice/pkg/middleware"
	"github.com/code-100-precent/LingVoice/pkg/response"
)

// MiddlewareStats 限流与熔断统计，供运维排查接口被拒的原因
func (h *Handlers) MiddlewareStats(c *gin.Context) {
	response.Success(c, "Success", gin.H{
		"rate_limiter":     middleware.GetRateLimiter().GetStats(),
		"circuit_breakers": middleware.GetCircuitBreakerStats(),
	})
}
