package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-api/internal/cache"
	"account-api/internal/docs"
	"account-api/internal/metrics"
	"account-api/internal/response"
	"account-api/internal/service"
)

// Version is the artifact version reported by the health endpoint.
const Version = "1.0.0"

// Config carries the handler knobs that do not change after startup.
type Config struct {
	JWTSecret   string
	Environment string
	CacheTTL    time.Duration
	Logger      *logrus.Logger
}

// Handler wires HTTP routes to domain services.
type Handler struct {
	users    service.UserService
	store    *cache.Store
	limiter  *ClientLimiter
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	secret   string
	env      string
	cacheTTL time.Duration

	startedAt time.Time
}

func NewHandler(cfg Config, users service.UserService, store *cache.Store, limiter *ClientLimiter, m *metrics.Metrics) *Handler {
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Handler{
		users:     users,
		store:     store,
		limiter:   limiter,
		metrics:   m,
		logger:    cfg.Logger,
		secret:    cfg.JWTSecret,
		env:       cfg.Environment,
		cacheTTL:  ttl,
		startedAt: time.Now(),
	}
}

// RegisterRoutes installs the middleware chain and the versioned API.
// Global order: rate limiter, CORS, access log, metrics; header validation
// guards the /api/v1 group; unmatched routes fall through to ForbidAccess.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(h.rateLimit(), corsMiddleware(), h.requestLogger(), h.observeRequests())

	router.GET("/health", h.health)
	router.GET("/api-docs", h.apiDocs)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	v1 := router.Group("/api/v1", ValidateHeaders())
	{
		v1.POST("/usuario/login", h.login)
		// registration stays open: the auth guard for this route is
		// configured but disabled
		v1.POST("/usuario", h.invalidateCache("user:"), h.createUser)

		authRequired := Authenticate(h.secret)
		v1.GET("/usuario", authRequired, h.cacheFor(h.cacheTTL, CacheKeyByUser), h.listUsers)
		v1.GET("/usuario/me", authRequired, RequireRole(), h.currentUser)
		v1.GET("/usuario/:id", authRequired, h.cacheFor(h.cacheTTL, CacheKeyByParams), h.getUserByID)
		// The "user:" pattern only matches the by-user keys; by-params
		// entries for GET /usuario/:id are left to expire on their own.
		v1.PUT("/usuario", authRequired, h.invalidateCache("user:"), h.updateUser)
		v1.DELETE("/usuario/:id", authRequired, h.invalidateCache("user:"), h.deleteUser)
	}

	router.NoRoute(ForbidAccess)
}

type createUserRequest struct {
	Name string `json:"name" binding:"required,max=250"`
	Mail string `json:"mail" binding:"required,email,max=250"`
	Pwd  string `json:"pwd" binding:"required,min=8"`
}

type updateUserRequest struct {
	ID   int64  `json:"id"`
	Name string `json:"name" binding:"omitempty,max=250"`
	Mail string `json:"mail" binding:"omitempty,email,max=250"`
	Pwd  string `json:"pwd" binding:"omitempty,min=8"`
}

type loginRequest struct {
	Mail string `json:"mail" binding:"required"`
	Pwd  string `json:"pwd" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, response.Validation("invalid request body", err.Error()))
		return
	}

	respond(c, h.users.Authenticate(c.Request.Context(), req.Mail, req.Pwd))
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, response.Validation("invalid request body", err.Error()))
		return
	}

	respond(c, h.users.Create(c.Request.Context(), req.Name, req.Mail, req.Pwd))
}

func (h *Handler) listUsers(c *gin.Context) {
	respond(c, h.users.GetAll(c.Request.Context()))
}

func (h *Handler) getUserByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond(c, response.Validation("invalid user id"))
		return
	}

	respond(c, h.users.GetByID(c.Request.Context(), id))
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, response.Validation("invalid request body", err.Error()))
		return
	}

	respond(c, h.users.Update(c.Request.Context(), service.UpdateUserInput{
		ID:   req.ID,
		Name: req.Name,
		Mail: req.Mail,
		Pwd:  req.Pwd,
	}))
}

func (h *Handler) deleteUser(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respond(c, response.Validation("invalid user id"))
		return
	}

	respond(c, h.users.Delete(c.Request.Context(), id))
}

func (h *Handler) currentUser(c *gin.Context) {
	ident, _ := IdentityFrom(c)
	respond(c, response.Success("authenticated user information", ident))
}

func (h *Handler) health(c *gin.Context) {
	respond(c, response.Success("service is alive", gin.H{
		"upTime":      time.Since(h.startedAt).Seconds(),
		"environment": h.env,
		"artifact":    "account-api",
		"version":     Version,
	}))
}

func (h *Handler) apiDocs(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", docs.OpenAPI)
}
