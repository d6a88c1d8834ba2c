package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"household-tracker/internal/auth"
	"household-tracker/internal/service"
)

// Handler wires HTTP routes to domain services behind the authentication pipeline.
type Handler struct {
	users      service.UserService
	ledger     service.LedgerService
	categories service.CategoryService
	tokens     auth.TokenDecoder
	login      *auth.LoginEndpoint
	oauth      *auth.OAuth2Login
	policy     *auth.Policy
	logger     logrus.FieldLogger
}

func NewHandler(
	users service.UserService,
	ledger service.LedgerService,
	categories service.CategoryService,
	tokens auth.TokenDecoder,
	login *auth.LoginEndpoint,
	oauth *auth.OAuth2Login,
	policy *auth.Policy,
	logger logrus.FieldLogger,
) *Handler {
	return &Handler{
		users:      users,
		ledger:     ledger,
		categories: categories,
		tokens:     tokens,
		login:      login,
		oauth:      oauth,
		policy:     policy,
		logger:     logger,
	}
}

// RegisterRoutes installs the middleware pipeline (CORS, token filter, route gate) and all routes.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())
	router.Use(auth.Authenticate(h.tokens, h.logger, auth.WithPrincipalLookup(h.users)))
	router.Use(auth.Gate(h.policy, h.logger))

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.POST("/auth/login", h.login.Handle)
	router.GET("/login-page", h.loginPage)
	router.GET(auth.AuthorizationPath, h.oauth.Start)
	router.GET(auth.CallbackPath, h.oauth.Callback)

	api := router.Group("/api")
	{
		api.POST("/users/register", h.register)
		api.GET("/users/me", h.me)

		api.POST("/ledger-entries", h.createEntry)
		api.GET("/ledger-entries", h.listEntries)
		api.GET("/ledger-entries/total", h.totalEntries)
		api.GET("/ledger-entries/summary", h.monthlySummary)
		api.GET("/ledger-entries/:id", h.getEntry)
		api.PUT("/ledger-entries/:id", h.updateEntry)
		api.DELETE("/ledger-entries/:id", h.deleteEntry)

		api.POST("/categories", h.createCategory)
		api.GET("/categories", h.listCategories)
		api.GET("/categories/:id", h.getCategory)
		api.PUT("/categories/:id", h.updateCategory)
		api.DELETE("/categories/:id", h.deactivateCategory)
		api.DELETE("/categories/:id/hard", h.deleteCategory)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h *Handler) loginPage(c *gin.Context) {
	if !h.oauth.Enabled() {
		c.JSON(http.StatusOK, gin.H{
			"url":     "",
			"message": "Federated login is not configured; use POST /auth/login.",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"url":     auth.AuthorizationPath,
		"message": "Redirect the browser to url to sign in with Google.",
	})
}

// currentUserID aborts with 401 when no principal is bound; the gate normally prevents that.
func currentUserID(c *gin.Context) (int64, bool) {
	id, ok := auth.CurrentUserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return 0, false
	}
	return id, true
}
