package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/newsbot360/newsbot/internal/storage"
	"github.com/newsbot360/newsbot/internal/tools"
)

type NewsSearcher interface {
	ByTheme(ctx context.Context, topic string) ([]tools.NewsArticle, *tools.ErrorRecord)
}

type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (tools.Sentiment, *tools.ErrorRecord)
}

type Server struct {
	store     *storage.Store
	news      NewsSearcher
	sentiment SentimentAnalyzer
	// pdfRoot 为空时不限制 PDF 路径
	pdfRoot string
	log     zerolog.Logger
}

func NewServer(store *storage.Store, news NewsSearcher, sentiment SentimentAnalyzer, pdfRoot string, log zerolog.Logger) *Server {
	return &Server{store: store, news: news, sentiment: sentiment, pdfRoot: pdfRoot, log: log}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/feeds", s.listFeeds)
		v1.GET("/articles", s.listArticles)
		v1.GET("/articles/:id/text", s.getArticleText)
	}

	t := r.Group("/tools")
	{
		t.POST("/news", s.newsByTheme)
		t.POST("/sentiment", s.analyzeSentiment)
		t.POST("/pdf-pages", s.pdfPages)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

func (s *Server) listFeeds(c *gin.Context) {
	feeds, err := s.store.ListFeeds(c.Request.Context())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": feeds})
}

func (s *Server) listArticles(c *gin.Context) {
	var feedID uint64
	if v := c.Query("feed_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid feed_id"})
			return
		}
		feedID = id
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.store.ListArticles(c.Request.Context(), uint(feedID), limit)
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": items})
}

func (s *Server) getArticleText(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid article id"})
		return
	}
	text, err := s.store.GetArticleText(c.Request.Context(), uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": "not_found", "message": "article text not found"})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": text})
}

// 工具接口失败时直接返回 ErrorRecord，HTTP 状态仍为 200
func (s *Server) newsByTheme(c *gin.Context) {
	var req struct {
		Topic string `json:"topic" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}
	items, rec := s.news.ByTheme(c.Request.Context(), req.Topic)
	if rec != nil {
		c.JSON(http.StatusOK, rec)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) analyzeSentiment(c *gin.Context) {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}
	res, rec := s.sentiment.Analyze(c.Request.Context(), req.Text)
	if rec != nil {
		c.JSON(http.StatusOK, rec)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) pdfPages(c *gin.Context) {
	var req struct {
		PDFPath string `json:"pdf_path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": err.Error()})
		return
	}
	path, ok := s.resolvePDFPath(req.PDFPath)
	if !ok {
		c.JSON(http.StatusOK, &tools.ErrorRecord{Kind: tools.KindPDFError, Message: "path outside PDF_ROOT"})
		return
	}
	pages, rec := tools.PDFPages(path)
	if rec != nil {
		c.JSON(http.StatusOK, rec)
		return
	}
	c.JSON(http.StatusOK, pages)
}

// resolvePDFPath 把相对路径解析到 pdfRoot 下，拒绝越界路径
func (s *Server) resolvePDFPath(p string) (string, bool) {
	if s.pdfRoot == "" {
		return p, true
	}
	root, err := filepath.Abs(s.pdfRoot)
	if err != nil {
		return "", false
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	p = filepath.Clean(p)
	rel, err := filepath.Rel(root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return p, true
}
