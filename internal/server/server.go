package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MosinFAM/chirp/internal/feed"
	"github.com/MosinFAM/chirp/internal/identity"
	"github.com/MosinFAM/chirp/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

const callerKey = "callerID"

var statusByKind = map[models.Kind]int{
	models.KindValidation:   http.StatusBadRequest,
	models.KindUnauthorized: http.StatusUnauthorized,
	models.KindForbidden:    http.StatusForbidden,
	models.KindNotFound:     http.StatusNotFound,
	models.KindRateLimited:  http.StatusTooManyRequests,
	models.KindInternal:     http.StatusInternalServerError,
}

type Server struct {
	feed   *feed.Service
	users  identity.Directory
	tokens *identity.Tokens
	logger *zap.Logger
}

func New(feedService *feed.Service, users identity.Directory, tokens *identity.Tokens, logger *zap.Logger) *Server {
	return &Server{feed: feedService, users: users, tokens: tokens, logger: logger.Named("http")}
}

// Handler returns the API wrapped in CORS handling for allowedOrigins.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	})
	return c.Handler(s.Router())
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), s.authenticate())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/posts")
	api.GET("", s.listPosts)
	api.GET("/:id", s.getPost)

	private := api.Group("", s.requireCaller)
	private.POST("", s.createPost)
	private.PATCH("/:id", s.editPost)
	private.DELETE("/:id", s.deletePost)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("Request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// authenticate resolves the caller from a bearer token. Requests without a
// token stay anonymous; a bad token is rejected outright.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			s.abort(c, fmt.Errorf("%w: expected a bearer token", models.ErrUnauthorized))
			return
		}
		caller, err := s.tokens.Parse(token)
		if err != nil {
			s.abort(c, err)
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// requireCaller guards write routes. Profile fields carried by the token are
// written to the directory so that the caller's posts resolve to an author.
func (s *Server) requireCaller(c *gin.Context) {
	caller, ok := c.Get(callerKey)
	if !ok {
		s.abort(c, fmt.Errorf("%w: sign in first", models.ErrUnauthorized))
		return
	}
	if profile := caller.(models.Author); profile.Username != "" {
		if err := s.users.UpsertUser(c.Request.Context(), profile); err != nil {
			s.abort(c, fmt.Errorf("sync profile: %w", err))
			return
		}
	}
	c.Next()
}

func callerID(c *gin.Context) string {
	if caller, ok := c.Get(callerKey); ok {
		return caller.(models.Author).ID
	}
	return ""
}

type listQuery struct {
	Limit    int    `form:"limit"`
	Cursor   string `form:"cursor"`
	ParentID string `form:"parentId"`
}

func (s *Server) listPosts(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	page, err := s.feed.List(c.Request.Context(), feed.ListRequest{
		Limit:    q.Limit,
		Cursor:   optional(q.Cursor),
		ParentID: optional(q.ParentID),
	})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (s *Server) getPost(c *gin.Context) {
	post, err := s.feed.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (s *Server) createPost(c *gin.Context) {
	var req feed.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	post, err := s.feed.Create(c.Request.Context(), callerID(c), req)
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (s *Server) editPost(c *gin.Context) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		s.abort(c, fmt.Errorf("%w: %v", models.ErrValidation, err))
		return
	}
	err := s.feed.Edit(c.Request.Context(), callerID(c), feed.EditRequest{ID: c.Param("id"), Content: body.Content})
	if err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deletePost(c *gin.Context) {
	if err := s.feed.Delete(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		s.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// abort writes err as {"error":{"code","message"}}. Unclassified errors are
// logged and hidden from the client.
func (s *Server) abort(c *gin.Context, err error) {
	kind := models.KindOf(err)
	message := err.Error()
	if kind == models.KindInternal {
		s.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		if !errors.Is(err, models.ErrInternal) {
			message = "internal server error"
		}
	}
	c.AbortWithStatusJSON(statusByKind[kind], gin.H{
		"error": gin.H{"code": kind, "message": message},
	})
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
