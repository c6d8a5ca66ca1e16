// Package httpapi serves the entity and sync APIs to browser UI
// collaborators over a local HTTP listener.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/paykeeper/internal/client/client"
	"github.com/dmitrijs2005/paykeeper/internal/client/router"
	"github.com/dmitrijs2005/paykeeper/internal/client/services"
	"github.com/dmitrijs2005/paykeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/paykeeper/internal/common"
	"github.com/dmitrijs2005/paykeeper/internal/logging"
	"github.com/dmitrijs2005/paykeeper/internal/records"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Error codes of the JSON error envelope.
const (
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeConflict    = "CONFLICT"
	CodeRejected    = "REJECTED"
	CodeUnavailable = "UNAVAILABLE"
	CodeInternal    = "INTERNAL_ERROR"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Response struct {
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

type Server struct {
	entities *services.Entities
	sync     *services.SyncService
	gatherer prometheus.Gatherer
	logger   logging.Logger
}

func NewServer(entities *services.Entities, sync *services.SyncService, gatherer prometheus.Gatherer, l logging.Logger) *Server {
	if l == nil {
		l = logging.NopLogger{}
	}
	return &Server{entities: entities, sync: sync, gatherer: gatherer, logger: l.With("module", "httpapi")}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(s.requestLogger(), gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.GET("/records/:entity", s.list)
		v1.GET("/records/:entity/:id", s.get)
		v1.POST("/records/:entity", s.save)
		v1.DELETE("/records/:entity/:id", s.remove)

		v1.GET("/settings", s.getSettings)
		v1.PATCH("/settings", s.updateSettings)

		v1.GET("/reports/unpaid-debts/:ownerId", s.unpaidDebts)

		v1.GET("/sync/status", s.syncStatus)
		v1.POST("/sync", s.syncNow)
		v1.GET("/sync/pending", s.pending)
		v1.POST("/sync/pending/:id/retry", s.retry)
		v1.DELETE("/sync/pending/:id", s.discard)
	}

	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}
	return r
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.Errors())
		}
		switch {
		case status >= 500:
			s.logger.Error(c.Request.Context(), "http request", args...)
		case status >= 400:
			s.logger.Warn(c.Request.Context(), "http request", args...)
		default:
			s.logger.Debug(c.Request.Context(), "http request", args...)
		}
	}
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, Response{Data: data})
}

func fail(c *gin.Context, err error) {
	status, code := classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{Error: &ErrorBody{Code: code, Message: err.Error()}})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Error: &ErrorBody{Code: CodeBadRequest, Message: msg}})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrorUnknownEntity):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, records.ErrInvalidQuery), errors.Is(err, router.ErrUnsupportedQuery):
		return http.StatusBadRequest, CodeBadRequest
	case errors.Is(err, client.ErrConflict),
		errors.Is(err, syncqueue.ErrNotQuarantined),
		errors.Is(err, syncqueue.ErrSyncInProgress):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, client.ErrInvalid):
		return http.StatusUnprocessableEntity, CodeRejected
	case errors.Is(err, router.ErrOfflineUnavailable), errors.Is(err, client.ErrUnauthorized):
		return http.StatusServiceUnavailable, CodeUnavailable
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}
