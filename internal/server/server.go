// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes diagnosis and the knowledge base over HTTP.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pdiddy/symptomatch/internal/diagnose"
	"github.com/pdiddy/symptomatch/internal/knowledge"
	"github.com/pdiddy/symptomatch/pkg/types"
)

const shutdownTimeout = 5 * time.Second

// HistoryStore persists served diagnoses.
type HistoryStore interface {
	RecordDiagnosis(ctx context.Context, input string, result types.DiagnosisResult) (types.DiagnosisRecord, error)
	History(ctx context.Context, limit int) ([]types.DiagnosisRecord, error)
}

// Server serves the HTTP API.
type Server struct {
	cfg        types.ServerConfig
	kb         *knowledge.Base
	diagnoser  *diagnose.Diagnoser
	history    HistoryStore
	classifier string
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHistory attaches a store. Served diagnoses are recorded when
// cfg.RecordHistory is set, and GET /api/history is registered.
func WithHistory(h HistoryStore) Option {
	return func(s *Server) { s.history = h }
}

// WithClassifierName reports the classifier backend in /readyz.
func WithClassifierName(name string) Option {
	return func(s *Server) { s.classifier = name }
}

// WithLogger sets the logger for server events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a Server answering from kb through d.
func New(cfg types.ServerConfig, kb *knowledge.Base, d *diagnose.Diagnoser, opts ...Option) *Server {
	s := &Server{
		cfg:        cfg,
		kb:         kb,
		diagnoser:  d,
		classifier: string(types.ClassifierNone),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Router builds the gin engine with every route and middleware.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())
	if s.cfg.MaxBodyBytes > 0 {
		router.Use(limitBodySize(s.cfg.MaxBodyBytes))
	}
	if len(s.cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins: s.cfg.CORSOrigins,
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization"},
			MaxAge:       12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.handleReady)

	api := router.Group("/api")
	api.POST("/diagnose", s.handleDiagnose)
	api.GET("/diseases", s.handleDiseases)
	api.GET("/diseases/:name", s.handleDisease)
	if s.history != nil {
		api.GET("/history", s.handleHistory)
	}

	return router
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      s.cfg.ClassifyTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	s.logger.Info("server listening", "addr", s.cfg.Addr, "diseases", s.kb.Len(), "classifier", s.classifier)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleReady(c *gin.Context) {
	if s.kb == nil || s.kb.Len() == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"diseases": 0,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"diseases":   s.kb.Len(),
		"symptoms":   len(s.kb.Vocabulary()),
		"classifier": s.classifier,
	})
}

type diagnoseRequest struct {
	Text string `json:"text"`
}

type diagnoseResponse struct {
	ID string `json:"id,omitempty"`
	diagnose.Report
}

func (s *Server) handleDiagnose(c *gin.Context) {
	var req diagnoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	report := s.diagnoser.DiagnoseDetailed(c.Request.Context(), req.Text)
	resp := diagnoseResponse{Report: report}

	if s.history != nil && s.cfg.RecordHistory {
		rec, err := s.history.RecordDiagnosis(c.Request.Context(), req.Text, report.DiagnosisResult)
		if err != nil {
			s.logger.Warn("recording diagnosis failed", "error", err)
		} else {
			resp.ID = rec.ID
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDiseases(c *gin.Context) {
	c.JSON(http.StatusOK, s.kb.Records())
}

func (s *Server) handleDisease(c *gin.Context) {
	name := c.Param("name")
	symptoms, ok := s.kb.Symptoms(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "disease not found", "disease": name})
		return
	}
	c.JSON(http.StatusOK, types.DiseaseRecord{Disease: name, Symptoms: symptoms})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.history.History(c.Request.Context(), limit)
	if err != nil {
		s.logger.Error("reading history failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if records == nil {
		records = []types.DiagnosisRecord{}
	}
	c.JSON(http.StatusOK, records)
}

func limitBodySize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
