package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"dano.kr/youthscope/internal/db"
	"dano.kr/youthscope/internal/globaltime"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Store is the read surface the API serves from. *db.Pool implements it.
type Store interface {
	CountNotices(ctx context.Context, filter db.NoticeListFilter) (int64, error)
	ListNotices(ctx context.Context, filter db.NoticeListFilter) ([]db.NoticeListItem, error)
	GetNoticeDetail(ctx context.Context, id int64) (*db.NoticeDetail, error)
	GetPolicyRef(ctx context.Context, id int64) (*db.PolicyRef, error)
	CountSimilarNotices(ctx context.Context, vectorLiteral string, threshold float64) (int64, error)
	SearchSimilarNotices(ctx context.Context, vectorLiteral string, threshold float64, limit, offset int) ([]db.NoticeListItem, error)
	ListPolicies(ctx context.Context) ([]db.PolicyListItem, error)
}

type Options struct {
	Host                string
	Port                int
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownTimeout     time.Duration
	AllowedOrigins      []string
	SimilarityThreshold float64
}

type Server struct {
	store  Store
	logger zerolog.Logger
	opts   Options
}

func NewServer(store Store, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8080
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 30 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	threshold := opts.SimilarityThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.83
	}

	return &Server{
		store:  store,
		logger: logger,
		opts: Options{
			Host:                host,
			Port:                port,
			ReadTimeout:         readTimeout,
			WriteTimeout:        writeTimeout,
			ShutdownTimeout:     shutdownTimeout,
			AllowedOrigins:      origins,
			SimilarityThreshold: threshold,
		},
	}
}

// buildEcho assembles the router so Start and the handler tests share one
// configuration.
func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: s.opts.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				s.logger.Error().
					Err(v.Error).
					Str("method", v.Method).
					Str("uri", v.URI).
					Int("status", v.Status).
					Dur("latency", v.Latency).
					Str("remote_ip", v.RemoteIP).
					Str("request_id", v.RequestID).
					Msg("http request failed")
				return nil
			}

			s.logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg("http request")
			return nil
		},
	}))

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/notices", s.handleNotices)
	api.GET("/notices/:id", s.handleNoticeDetail)
	api.GET("/policies", s.handlePolicies)

	return e
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.store == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.buildEcho()

	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("youthscope api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("youthscope api server stopped")
	return nil
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	if he, ok := err.(*echo.HTTPError); ok {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if status >= 500 {
		_ = internalError(c, "Internal server error")
		return
	}
	_ = fail(c, status, message, nil)
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "youthscope",
		"time":    globaltime.UTC(),
	})
}

// clampIntParam parses a pagination query value. Numeric input is clamped
// into [minValue, maxValue] rather than rejected; only non-numeric input is
// an error.
func clampIntParam(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue {
		return minValue, nil
	}
	if value > maxValue {
		return maxValue, nil
	}
	return value, nil
}
