package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whalewatch/searchsync/internal/sync"
)

// Syncer is the orchestrator surface the HTTP layer depends on.
type Syncer interface {
	SyncAll(ctx context.Context) sync.Result
	SyncSubset(ctx context.Context, requested []string) sync.Result
	Validate(requested []string) []string
	ValidTypes() []string
}

// SyncHandler exposes the sync trigger endpoints. Triggers are
// fire-and-forget: the request is acknowledged immediately and the run
// completes in the background. Progress is observable via logs and the
// status endpoints only.
type SyncHandler struct {
	syncer Syncer
}

func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// TriggerAll starts a full sync in the background.
func (h *SyncHandler) TriggerAll(c *gin.Context) {
	go h.syncer.SyncAll(context.Background())

	c.JSON(http.StatusOK, gin.H{
		"accepted": true,
		"message":  "full synchronization started in background",
	})
}

type subsetRequest struct {
	DataTypes []string `json:"data_types"`
}

// TriggerSubset validates the requested type tokens synchronously, then
// starts the sync in the background. Validation failures are the only
// synchronous rejection: they happen before any store or engine I/O.
func (h *SyncHandler) TriggerSubset(c *gin.Context) {
	var req subsetRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.DataTypes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"accepted":    false,
			"error":       "request body must contain a non-empty data_types array",
			"valid_types": h.syncer.ValidTypes(),
		})
		return
	}

	if invalid := h.syncer.Validate(req.DataTypes); len(invalid) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"accepted":    false,
			"error":       "invalid data types",
			"invalid":     invalid,
			"valid_types": h.syncer.ValidTypes(),
		})
		return
	}

	types := req.DataTypes
	go h.syncer.SyncSubset(context.Background(), types)

	c.JSON(http.StatusOK, gin.H{
		"accepted": true,
		"message":  "synchronization started in background",
		"types":    types,
	})
}
