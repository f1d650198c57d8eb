package intake

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"leadhook_backend/platform/config"
	"leadhook_backend/platform/httpkit"
)

// HookAuthMiddleware guards the submission route with the pre-shared path
// secret. The comparison is constant-time so the secret cannot be probed
// byte by byte.
func HookAuthMiddleware(cfg config.HookConfig) gin.HandlerFunc {
	expected := []byte(cfg.GetHookSecret())

	return func(c *gin.Context) {
		provided := []byte(c.Param("secret"))
		if len(expected) == 0 || subtle.ConstantTimeCompare(expected, provided) != 1 {
			httpkit.Error(c, http.StatusForbidden, "forbidden", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
