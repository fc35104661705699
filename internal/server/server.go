// Package server exposes the describe pipeline over HTTP. An upload is
// answered with the bundle as JSON, and the stored image and audio clip
// are served back from the scratch directories.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/snonux/echovision/internal"
	"codeberg.org/snonux/echovision/internal/metrics"
	"codeberg.org/snonux/echovision/internal/processor"
	"codeberg.org/snonux/echovision/internal/storage"
)

const shutdownTimeout = 30 * time.Second

// Pipeline runs describe requests
type Pipeline interface {
	Process(ctx context.Context, req processor.Request) (*processor.Bundle, error)
	Storage() *storage.Manager
}

// Config holds the HTTP settings
type Config struct {
	Addr string
	// DefaultLanguage is used when an upload names no language
	DefaultLanguage string
	// MaxUploadBytes limits the request body, 0 means unlimited
	MaxUploadBytes int64
}

// Server is the HTTP front end of the pipeline
type Server struct {
	pipeline Pipeline
	config   Config
	router   *gin.Engine
}

// New creates a server and registers its routes
func New(pipeline Pipeline, config Config) *Server {
	metrics.Register()

	s := &Server{
		pipeline: pipeline,
		config:   config,
		router:   gin.New(),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.GET("/health", s.health)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")
	{
		api.GET("/languages", s.languages)
		api.POST("/describe", s.describe)
	}

	media := s.router.Group("/media")
	{
		media.GET("/audio/:name", s.serveFile(storage.Audio))
		media.GET("/uploads/:name", s.serveFile(storage.Uploads))
	}
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled and then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{
			"addr":    s.config.Addr,
			"version": internal.Version,
		}).Info("starting HTTP server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// requestLogger logs every request through apex/log
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		entry := log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(started).String(),
		})
		if c.Writer.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Debug("request served")
	}
}
