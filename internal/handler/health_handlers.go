package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/whalewatch/searchsync/internal/search"
	"github.com/whalewatch/searchsync/internal/store"
)

// StoreHandler exposes the document store status endpoint.
type StoreHandler struct {
	store *store.Manager
}

func NewStoreHandler(mgr *store.Manager) *StoreHandler {
	return &StoreHandler{store: mgr}
}

// Status reports the connection state, attempting a reconnect when the
// manager believes itself disconnected. Always answers 200 with a status
// body; a degraded store is a described condition, not a server error.
func (h *StoreHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.store.Status(c.Request.Context()))
}

// SearchHandler exposes the search engine health endpoint and a read-only
// query passthrough.
type SearchHandler struct {
	admin *search.Client
	keys  *search.KeyManager

	// restricted returns the current read client, or nil while no valid
	// search key exists. Reads are blocked in that case; the admin client
	// is never substituted.
	restricted func() *search.Client
}

func NewSearchHandler(admin *search.Client, keys *search.KeyManager, restricted func() *search.Client) *SearchHandler {
	return &SearchHandler{admin: admin, keys: keys, restricted: restricted}
}

// Health reports engine health, the visible indexes, and the restricted
// key diagnostics, with a remediation hint when a check fails.
func (h *SearchHandler) Health(c *gin.Context) {
	health, err := h.admin.Health()
	if err != nil {
		log.WithError(err).Error("search engine health check failed")
		c.JSON(http.StatusOK, gin.H{
			"status": "disconnected",
			"error":  err.Error(),
		})
		return
	}

	indexes, err := h.admin.ListIndexes()
	if err != nil {
		log.WithError(err).Error("index listing failed")
	}

	diagnostics := h.keys.Diagnose(h.restricted())

	resp := gin.H{
		"status":          "connected",
		"health":          health,
		"indexes":         indexes,
		"key_diagnostics": diagnostics,
	}
	if hint := diagnostics.ActionItem(); hint != "" {
		resp["action_item"] = hint
	}
	c.JSON(http.StatusOK, resp)
}

// Query runs a search against one index through the restricted client.
func (h *SearchHandler) Query(c *gin.Context) {
	client := h.restricted()
	if client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "no valid search key; read paths are blocked until one is provisioned",
		})
		return
	}

	uid := c.Query("index")
	if uid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index query parameter is required"})
		return
	}

	page, err := client.Search(uid, c.Query("q"), searchParamsFromQuery(c))
	if err != nil {
		log.WithError(err).WithField("index", uid).Error("search query failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, page)
}

const defaultQueryLimit = 20

// searchParamsFromQuery maps the filter/sort/limit/offset query string
// parameters onto search parameters. Unparseable numbers fall back to the
// defaults; sort takes comma-separated "field:direction" entries.
func searchParamsFromQuery(c *gin.Context) search.SearchParams {
	params := search.SearchParams{
		Filter: c.Query("filter"),
		Limit:  defaultQueryLimit,
	}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			params.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			params.Offset = n
		}
	}
	if v := c.Query("sort"); v != "" {
		params.Sort = strings.Split(v, ",")
	}
	return params
}
