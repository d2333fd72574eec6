package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/travelbooking/api"
	"github.com/Domenick1991/travelbooking/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 5 * time.Second
	swaggerFile     = "travelbooking.swagger.json"
)

// Run serves the HTTP API and blocks until ctx is canceled or the server fails.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger, tokens api.TokenParser, handlers api.Handlers) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           NewEngine(cfg, log, tokens, handlers),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewEngine(cfg *config.Config, log *zap.Logger, tokens api.TokenParser, handlers api.Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(
		api.RequestLogger(log),
		api.Recovery(log),
		cors.New(corsConfig(cfg.HTTP.CORSOrigins)),
		api.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
		api.Authenticate(tokens, cfg.Auth.TrustIdentityHeader),
	)

	if cfg.HTTP.SwaggerDir != "" {
		engine.Static("/swagger", cfg.HTTP.SwaggerDir)
		engine.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/swagger/"+swaggerFile),
		)))
	}

	handlers.Register(engine)
	return engine
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", api.RequestIDHeader)
	cfg.ExposeHeaders = []string{api.RequestIDHeader, "Content-Disposition"}
	return cfg
}
