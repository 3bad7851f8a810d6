package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"neuralnews/internal/publisher"
	"neuralnews/internal/scheduler"
	"neuralnews/internal/storage"
)

type Server struct {
	store     *storage.Store
	scheduler *scheduler.Scheduler
	publisher *publisher.Client
}

func NewServer(store *storage.Store, sched *scheduler.Scheduler, pub *publisher.Client) *Server {
	return &Server{store: store, scheduler: sched, publisher: pub}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/news", s.listNews)
		api.GET("/news/:id", s.getNews)
		api.POST("/news", s.createNews)
		api.PUT("/news/:id", s.updateNews)
		api.DELETE("/news/:id", s.deleteNews)
		api.DELETE("/news", s.deleteAllNews)
		api.POST("/news/:id/share", s.shareNews)

		api.GET("/sources", s.listSources)
		api.POST("/sources", s.createSource)
		api.PUT("/sources/:id", s.updateSource)
		api.DELETE("/sources/:id", s.deleteSource)

		api.GET("/stats", s.stats)
		api.POST("/fetch", s.triggerFetch)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ---------- news ----------

func (s *Server) listNews(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 {
		limit = 50
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	filter := storage.NewsFilter{
		Source: c.Query("source"),
		Search: c.Query("search"),
	}
	switch c.Query("shared") {
	case "true":
		v := true
		filter.Shared = &v
	case "false":
		v := false
		filter.Shared = &v
	}

	items, err := s.store.ListNews(limit, offset, filter)
	if err != nil {
		internalError(c, err)
		return
	}
	stats, err := s.store.StatsNews()
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       items,
		"stats":      stats,
		"pagination": gin.H{"limit": limit, "offset": offset},
	})
}

func (s *Server) getNews(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	item, err := s.store.GetNews(id)
	if err != nil {
		internalError(c, err)
		return
	}
	if item == nil {
		notFound(c, "news not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": item})
}

type createNewsRequest struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Content   string `json:"content"`
	Source    string `json:"source"`
	SourceURL string `json:"sourceUrl"`
	ImageURL  string `json:"imageUrl"`
	Category  string `json:"category"`
}

func (s *Server) createNews(c *gin.Context) {
	var req createNewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Title == "" {
		badRequest(c, "title is required")
		return
	}

	id, err := s.store.CreateNews(&storage.News{
		Title:     req.Title,
		Summary:   req.Summary,
		Content:   req.Content,
		Source:    req.Source,
		SourceURL: req.SourceURL,
		ImageURL:  req.ImageURL,
		Category:  req.Category,
	})
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": id})
}

func (s *Server) updateNews(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var update storage.NewsUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	changed, err := s.store.UpdateNews(id, update)
	if err != nil {
		internalError(c, err)
		return
	}
	if changed == 0 {
		notFound(c, "news not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "news updated"})
}

func (s *Server) deleteNews(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	changed, err := s.store.DeleteNews(id)
	if err != nil {
		internalError(c, err)
		return
	}
	if changed == 0 {
		notFound(c, "news not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "news deleted"})
}

func (s *Server) deleteAllNews(c *gin.Context) {
	removed, err := s.store.DeleteAllNews()
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "removed": removed})
}

func (s *Server) shareNews(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	item, err := s.store.GetNews(id)
	if err != nil {
		internalError(c, err)
		return
	}
	if item == nil {
		notFound(c, "news not found")
		return
	}

	tweetID, err := s.publisher.Publish(c.Request.Context(), publisher.FormatTweet(item))
	if errors.Is(err, publisher.ErrNotConfigured) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success": false,
			"error":   "X API is not configured",
		})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}

	if _, err := s.store.MarkShared(id); err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "news shared", "tweetId": tweetID})
}

// ---------- sources ----------

func (s *Server) listSources(c *gin.Context) {
	sources, err := s.store.ListSources()
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sources})
}

type createSourceRequest struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Type     string `json:"type"`
	IsActive *bool  `json:"isActive"`
}

func (s *Server) createSource(c *gin.Context) {
	var req createSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Name == "" || req.URL == "" {
		badRequest(c, "name and url are required")
		return
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	src := storage.Source{Name: req.Name, URL: req.URL, Type: req.Type, IsActive: active}
	if err := s.store.CreateSource(&src); err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "id": src.ID})
}

func (s *Server) updateSource(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	var update storage.SourceUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	changed, err := s.store.UpdateSource(id, update)
	if err != nil {
		internalError(c, err)
		return
	}
	if changed == 0 {
		notFound(c, "source not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "source updated"})
}

func (s *Server) deleteSource(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	changed, err := s.store.DeleteSource(id)
	if err != nil {
		internalError(c, err)
		return
	}
	if changed == 0 {
		notFound(c, "source not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "source deleted"})
}

// ---------- system ----------

func (s *Server) stats(c *gin.Context) {
	newsStats, err := s.store.StatsNews()
	if err != nil {
		internalError(c, err)
		return
	}
	sources, err := s.store.ListSources()
	if err != nil {
		internalError(c, err)
		return
	}

	active := 0
	for _, src := range sources {
		if src.IsActive {
			active++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"news": newsStats,
			"sources": gin.H{
				"total":  len(sources),
				"active": active,
			},
			"scheduler": gin.H{
				"running":  s.scheduler.IsRunning(),
				"interval": s.scheduler.Interval(),
			},
			"twitter": gin.H{
				"connected": s.publisher.IsConfigured(),
			},
		},
	})
}

func (s *Server) triggerFetch(c *gin.Context) {
	sum, err := s.scheduler.TriggerFetch(context.Background())
	if errors.Is(err, scheduler.ErrFetchInProgress) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error()})
		return
	}
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": sum})
}

// ---------- helpers ----------

func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		badRequest(c, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "error": msg})
}

func internalError(c *gin.Context, err error) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
}
