package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/cima-comb/app/content"
	"github.com/lysyi3m/cima-comb/app/database"
	"github.com/lysyi3m/cima-comb/app/feed"
	"github.com/lysyi3m/cima-comb/app/harvest"
)

const (
	defaultFeedItems = 50
	maxFeedItems     = 200
)

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		items:     deps.Items,
		statuses:  deps.Statuses,
		users:     deps.Users,
		sources:   deps.Sources,
		generator: feed.NewGenerator(),
		prober:    deps.Prober,
		harvest:   deps.Harvest,
		scheduler: deps.Scheduler,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	param := c.Param("category")

	var category content.Category
	if param != "all" {
		parsed, ok := content.ParseCategory(param)
		if !ok {
			c.Status(http.StatusNotFound)
			return
		}
		category = parsed
	}

	limit := queryInt(c, "limit", defaultFeedItems)
	if limit < 1 || limit > maxFeedItems {
		limit = defaultFeedItems
	}

	items, err := h.items.GetRecentItems(c.Request.Context(), string(category), limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_items", "category", param, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(category, items)
	if err != nil {
		slog.Error("RSS generation error", "category", param, "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/rss+xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))
	if len(items) > 0 {
		c.Header("X-Last-Updated", items[0].LastUpdated.Format(time.RFC3339))
	}

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"sources":   h.sources.Count(),
	}

	itemCount, err := h.items.GetItemCount(c.Request.Context())
	if err != nil {
		slog.Error("Health check failed", "error", err)
		health["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}

	health["status"] = "ok"
	health["items"] = itemCount
	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	itemCount, err := h.items.GetItemCount(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_item_count", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	categories, err := h.items.GetCategoryCounts(ctx)
	if err != nil {
		slog.Error("Database error", "operation", "get_category_counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	enabled := 0
	for _, src := range h.sources.Sources() {
		if src.Enabled {
			enabled++
		}
	}

	var nextHarvest *time.Time
	if next := h.scheduler.NextHarvest(); !next.IsZero() {
		nextHarvest = &next
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        itemCount,
		"categories":   categories,
		"sources":      gin.H{"total": h.sources.Count(), "enabled": enabled},
		"running":      h.harvest.Running(),
		"last_report":  h.harvest.LastReport(),
		"next_harvest": nextHarvest,
	})
}

func (h *Handler) APIListSites(c *gin.Context) {
	statuses, err := h.statuses.GetAllStatuses(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "get_all_statuses", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	byName := make(map[string]database.SourceStatus, len(statuses))
	for _, status := range statuses {
		byName[status.SourceName] = status
	}

	sites := make([]SiteResponse, 0, h.sources.Count())
	for _, src := range h.sources.Sources() {
		site := SiteResponse{
			Name:         src.Name,
			URL:          src.URL,
			Extractor:    src.Extractor,
			CategoryHint: src.CategoryHint,
			Enabled:      src.Enabled,
			Status:       database.StatusUnknown,
		}
		if status, ok := byName[src.Name]; ok {
			site.Status = status.Status
			site.LastAttempt = status.LastAttempt
			site.LastError = status.LastError
		}
		sites = append(sites, site)
	}

	c.JSON(http.StatusOK, gin.H{
		"sites": sites,
		"total": len(sites),
	})
}

func (h *Handler) APIProbeSite(c *gin.Context) {
	name := c.Param("name")

	src, ok := h.sources.Get(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Source not found"})
		return
	}

	result := h.prober.Probe(c.Request.Context(), src.URL)
	slog.Debug("Source probed", "source", name, "reachable", result.Reachable, "latency_ms", result.LatencyMS)

	c.JSON(http.StatusOK, gin.H{
		"name":  src.Name,
		"probe": result,
	})
}

func (h *Handler) APISearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing q parameter"})
		return
	}

	limit := database.ClampSearchLimit(queryInt(c, "limit", database.DefaultSearchLimit))

	items, err := h.items.SearchItems(c.Request.Context(), query, limit)
	if err != nil {
		slog.Error("Database error", "operation", "search_items", "query", query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query": query,
		"items": newItemResponses(items),
		"total": len(items),
	})
}

func (h *Handler) APIGetItem(c *gin.Context) {
	url := c.Query("url")
	if url == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	item, err := h.items.GetItemByURL(c.Request.Context(), url)
	if err != nil {
		slog.Error("Database error", "operation", "get_item_by_url", "url", url, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	c.JSON(http.StatusOK, newItemResponse(*item))
}

func (h *Handler) APITriggerHarvest(c *gin.Context) {
	err := h.scheduler.TriggerHarvest()
	if errors.Is(err, harvest.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "Harvest already in progress"})
		return
	}
	if err != nil {
		slog.Error("Error enqueueing harvest", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue harvest",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Harvest enqueued",
	})
}

func (h *Handler) APIAddRating(c *gin.Context) {
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	item, err := h.users.AddRating(c.Request.Context(), req.UserID, req.URL, req.Rating)
	if err != nil {
		h.respondStoreError(c, "add_rating", err)
		return
	}

	c.JSON(http.StatusOK, newItemResponse(*item))
}

func (h *Handler) APIAddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.users.AddFavorite(c.Request.Context(), req.UserID, req.URL); err != nil {
		h.respondStoreError(c, "add_favorite", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handler) APIRemoveFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	if err := h.users.RemoveFavorite(c.Request.Context(), req.UserID, req.URL); err != nil {
		h.respondStoreError(c, "remove_favorite", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) APIGetFavorites(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	items, err := h.users.GetFavorites(c.Request.Context(), userID)
	if err != nil {
		h.respondStoreError(c, "get_favorites", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"items":   newItemResponses(items),
		"total":   len(items),
	})
}

func (h *Handler) APIUpdatePreferences(c *gin.Context) {
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	var req preferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	sub, err := h.users.GetSubscriber(ctx, userID)
	if err != nil {
		h.respondStoreError(c, "get_subscriber", err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscriber not found"})
		return
	}

	prefs := sub.Preferences
	if req.ReceiveMovies != nil {
		prefs.ReceiveMovies = *req.ReceiveMovies
	}
	if req.ReceiveSeries != nil {
		prefs.ReceiveSeries = *req.ReceiveSeries
	}
	if req.ReceiveAnime != nil {
		prefs.ReceiveAnime = *req.ReceiveAnime
	}

	if err := h.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		h.respondStoreError(c, "update_preferences", err)
		return
	}

	sub.Preferences = prefs
	c.JSON(http.StatusOK, newSubscriberResponse(*sub))
}

func (h *Handler) APIUpsertSubscriber(c *gin.Context) {
	var req subscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	err := h.users.UpsertSubscriber(ctx, database.Subscriber{
		UserID:    req.UserID,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.respondStoreError(c, "upsert_subscriber", err)
		return
	}

	sub, err := h.users.GetSubscriber(ctx, req.UserID)
	if err != nil {
		h.respondStoreError(c, "get_subscriber", err)
		return
	}
	if sub == nil {
		slog.Error("Subscriber missing after upsert", "user_id", req.UserID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Subscriber not found after upsert"})
		return
	}

	c.JSON(http.StatusOK, newSubscriberResponse(*sub))
}

func (h *Handler) respondStoreError(c *gin.Context, operation string, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		slog.Error("Database error", "operation", operation, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
	}
}

func userIDParam(c *gin.Context) (int64, bool) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || userID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return 0, false
	}
	return userID, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
