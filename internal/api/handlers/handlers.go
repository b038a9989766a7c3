package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/openride/backend/internal/service/lifecycle"
	"github.com/openride/backend/internal/service/matching"
	"github.com/openride/backend/internal/storage"
	apperrors "github.com/openride/backend/pkg/errors"
	"github.com/openride/backend/pkg/logger"
	"github.com/openride/backend/pkg/monitoring"
	"github.com/openride/backend/pkg/websocket"
	"github.com/redis/go-redis/v9"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Store      storage.Store
	Ranker     *matching.Ranker
	Lifecycle  *lifecycle.Controller
	Redis      *redis.Client
	Logger     *logger.Logger
	Monitoring *monitoring.NewRelicApp
	Hub        *websocket.Hub
	MaxResults int
}

// NewHandlers creates a new Handlers instance
func NewHandlers(store storage.Store, ranker *matching.Ranker, lc *lifecycle.Controller,
	redisClient *redis.Client, log *logger.Logger, nr *monitoring.NewRelicApp,
	hub *websocket.Hub, maxResults int) *Handlers {
	return &Handlers{
		Store:      store,
		Ranker:     ranker,
		Lifecycle:  lc,
		Redis:      redisClient,
		Logger:     log,
		Monitoring: nr,
		Hub:        hub,
		MaxResults: maxResults,
	}
}

// respondError maps a domain error onto the wire format.
func (h *Handlers) respondError(c *gin.Context, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.Status >= 500 {
		h.Logger.Error("Request failed", logger.Err(err), logger.String("path", c.FullPath()))
	}
	c.JSON(appErr.Status, gin.H{"code": appErr.Code, "message": appErr.Message})
}
