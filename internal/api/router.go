package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/virevo/virevo/internal/logger"
	"github.com/virevo/virevo/internal/mongodb"
)

var allRoles = []string{mongodb.RoleSuperAdmin, mongodb.RoleAdmin, mongodb.RoleExpert, mongodb.RoleUser}

// NewRouter wires every API route.
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.GinMiddleware(deps.Logger),
		Metrics(deps.Metrics),
		CORS(deps.Config.API.AllowedOrigins),
		Timeout(deps.Config.API.RequestTimeout),
	)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "Server is healthy")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authH := &AuthHandler{deps: deps}
	authGroup := r.Group("/api/auth")
	authGroup.POST("/login", authH.Login)
	authGroup.POST("/signup", authH.Signup)
	authGroup.POST("/new-otp", authH.NewOTP)
	authGroup.POST("/new-user", authH.NewUser)
	authGroup.POST("/verify-otp", authH.VerifyOTP)
	authGroup.POST("/update-password", authH.UpdatePassword)
	authGroup.POST("/refresh-token", authH.RefreshToken)
	authGroup.POST("/google", authH.Google)
	authGroup.POST("/logout", RequireAuth(deps.Tokens), authH.Logout)

	userH := &UserHandler{deps: deps}
	userGroup := r.Group("/api/user", RequireAuth(deps.Tokens), RequireRole(allRoles...))
	userGroup.GET("/fetch-user/:userId", userH.FetchUser)
	userGroup.GET("/dashboard", userH.Dashboard)
	userGroup.GET("/list", userH.List)
	userGroup.POST("/update-profile", userH.UpdateProfile)
	userGroup.POST("/change-password", userH.ChangePassword)

	adminH := &AdminHandler{deps: deps}
	adminGroup := r.Group("/api/admin", RequireAuth(deps.Tokens), RequireRole(mongodb.RoleSuperAdmin, mongodb.RoleAdmin))
	adminGroup.GET("/dashboard", adminH.Dashboard)

	chatH := &ChatHandler{deps: deps}
	chatGroup := r.Group("/api/chat", RequireAuth(deps.Tokens), RequireRole(allRoles...))
	chatGroup.GET("/chat-history", chatH.History)
	chatGroup.GET("/messages/:chatId", chatH.Messages)
	chatGroup.GET("/all-users", chatH.AllUsers)

	return r
}
