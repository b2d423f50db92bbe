package router

import (
	"github.com/gin-gonic/gin"

	"github.com/whalewatch/searchsync/internal/handler"
)

func registerSyncRoutes(rg *gin.RouterGroup, h *handler.SyncHandler) {
	sync := rg.Group("/sync")
	sync.POST("/all", h.TriggerAll)
	sync.POST("/subset", h.TriggerSubset)
}

func registerStatusRoutes(rg *gin.RouterGroup, storeH *handler.StoreHandler, searchH *handler.SearchHandler) {
	rg.GET("/store/status", storeH.Status)
	rg.GET("/search/health", searchH.Health)
	rg.GET("/search/query", searchH.Query)
}
