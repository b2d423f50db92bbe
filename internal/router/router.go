package router

import (
	"github.com/gin-gonic/gin"

	"github.com/whalewatch/searchsync/internal/handler"
)

// Config carries the constructed handlers into the router.
type Config struct {
	SyncHandler   *handler.SyncHandler
	StoreHandler  *handler.StoreHandler
	SearchHandler *handler.SearchHandler
}

func NewRouter(cfg *Config) *gin.Engine {
	router := gin.Default()

	api := router.Group("/v1/")
	registerSyncRoutes(api, cfg.SyncHandler)
	registerStatusRoutes(api, cfg.StoreHandler, cfg.SearchHandler)

	return router
}
