package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"aipress/internal/model"
	"aipress/internal/pipeline"
	"aipress/internal/storage"
)

type articleResponse struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Excerpt   string    `json:"excerpt"`
	Image     string    `json:"image,omitempty"`
	Author    string    `json:"author"`
	Category  string    `json:"category"`
	Language  string    `json:"language"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toArticleResponse(a model.Article) articleResponse {
	return articleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Content:   a.Content,
		Excerpt:   a.Excerpt,
		Image:     a.Image,
		Author:    a.Author,
		Category:  a.Category,
		Language:  a.Language,
		Published: a.Published,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func toArticleResponses(articles []model.Article) []articleResponse {
	out := make([]articleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, toArticleResponse(a))
	}
	return out
}

func (s *Server) listArticles(c *gin.Context) {
	filter := model.ArticleFilter{
		PublishedOnly: true,
		Category:      c.Query("category"),
	}
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		filter.Limit = n
	}

	articles, err := s.store.ListArticles(c.Request.Context(), filter)
	if err != nil {
		s.log.Error("list articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toArticleResponses(articles))
}

func (s *Server) getArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	article, err := s.store.GetArticle(c.Request.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		s.log.Error("get article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	// Unpublished articles are invisible on the public surface.
	if !article.Published {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(*article))
}

type leadRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message" binding:"required"`
}

func (s *Server) createLead(c *gin.Context) {
	var req leadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead := model.Lead{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	}
	if err := s.store.CreateLead(c.Request.Context(), &lead); err != nil {
		s.log.Error("create lead", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": lead.ID})
}

func (s *Server) adminListArticles(c *gin.Context) {
	articles, err := s.store.ListArticles(c.Request.Context(), model.ArticleFilter{
		Category: c.Query("category"),
	})
	if err != nil {
		s.log.Error("list articles", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toArticleResponses(articles))
}

type createArticleRequest struct {
	Title     string `json:"title" binding:"required"`
	Content   string `json:"content" binding:"required"`
	Excerpt   string `json:"excerpt"`
	Image     string `json:"image"`
	Author    string `json:"author"`
	Category  string `json:"category"`
	Language  string `json:"language"`
	Published bool   `json:"published"`
}

func (s *Server) adminCreateArticle(c *gin.Context) {
	var req createArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article := model.Article{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Image:     req.Image,
		Author:    req.Author,
		Category:  req.Category,
		Language:  req.Language,
		Published: req.Published,
	}
	if err := s.store.CreateArticle(c.Request.Context(), &article); err != nil {
		s.log.Error("create article", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, toArticleResponse(article))
}

type updateArticleRequest struct {
	Title     *string `json:"title"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt"`
	Image     *string `json:"image"`
	Category  *string `json:"category"`
	Published *bool   `json:"published"`
}

func (s *Server) adminUpdateArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid article id"})
		return
	}

	var req updateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	article, err := s.store.UpdateArticle(c.Request.Context(), id, model.ArticlePatch{
		Title:     req.Title,
		Content:   req.Content,
		Excerpt:   req.Excerpt,
		Image:     req.Image,
		Category:  req.Category,
		Published: req.Published,
	})
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
		return
	}
	if err != nil {
		s.log.Error("update article", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, toArticleResponse(*article))
}

type leadResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Server) adminListLeads(c *gin.Context) {
	leads, err := s.store.ListLeads(c.Request.Context())
	if err != nil {
		s.log.Error("list leads", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, leadResponse{
			ID:        l.ID,
			Name:      l.Name,
			Email:     l.Email,
			Phone:     l.Phone,
			Message:   l.Message,
			CreatedAt: l.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) adminSync(c *gin.Context) {
	created, err := s.syncer.Run(c.Request.Context())
	if errors.Is(err, pipeline.ErrAlreadyRunning) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": "sync already running"})
		return
	}
	if err != nil {
		s.log.Error("manual sync", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "sync failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}
