package admin

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abuelmaaref/portfolio/internal/contact"
)

const tokenCookie = "admin_token"

// Inbox is the slice of contact.Repository the admin API reads.
type Inbox interface {
	MessageCounter
	List(ctx context.Context, limit int) ([]contact.Message, error)
}

type Handler struct {
	token     string
	tracker   *Tracker
	inbox     Inbox
	retention time.Duration
	log       *zap.Logger
}

func NewHandler(token string, tracker *Tracker, inbox Inbox, retention time.Duration, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{token: token, tracker: tracker, inbox: inbox, retention: retention, log: log}
}

// RequireToken accepts "Authorization: Bearer <token>" or the admin_token
// cookie, compared in constant time.
func (h *Handler) RequireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if got == "" {
			got, _ = c.Cookie(tokenCookie)
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
			h.log.Warn("rejected admin request", zap.String("from", h.tracker.HashIP(c.ClientIP())))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// Register mounts the admin API on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.Use(h.RequireToken())
	rg.GET("/stats", h.stats)
	rg.GET("/messages", h.messages)
	rg.POST("/cleanup", h.cleanup)
}

func (h *Handler) stats(c *gin.Context) {
	st, err := h.tracker.Stats(c.Request.Context(), h.inbox, 50)
	if err != nil {
		h.log.Error("load admin stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, st)
}

func (h *Handler) messages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
		return
	}
	msgs, err := h.inbox.List(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("list contact messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

func (h *Handler) cleanup(c *gin.Context) {
	n, err := h.tracker.Cleanup(c.Request.Context(), h.retention)
	if err != nil {
		h.log.Error("privacy cleanup", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cleanup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": n})
}
