package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/go-archive-search/api"
	"github.com/gcbaptista/go-archive-search/config"
	"github.com/gcbaptista/go-archive-search/internal/cache"
	"github.com/gcbaptista/go-archive-search/internal/engine"
	"github.com/gcbaptista/go-archive-search/internal/logging"
	"github.com/gcbaptista/go-archive-search/internal/metrics"
	"github.com/gcbaptista/go-archive-search/internal/persistence"
	"github.com/gcbaptista/go-archive-search/internal/search"
	"github.com/gcbaptista/go-archive-search/services"
)

func serveCommand() cli.Command {
	return cli.Command{
		Name:      "serve",
		Usage:     "Load an index and answer queries over HTTP",
		ArgsUsage: "[index.blob]",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:   "config",
				EnvVar: "ARCHIVE_SEARCH_CONFIG",
				Usage:  "Path to a YAML config file",
			},
			cli.IntFlag{
				Name:  "port",
				Usage: "Port to listen on (overrides config)",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return err
			}
			if c.IsSet("port") {
				cfg.Server.Port = c.Int("port")
			}
			if path := c.Args().First(); path != "" {
				cfg.Index.Path = path
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if !c.GlobalIsSet("log-level") {
				logging.Setup(cfg.Logging.Level, cfg.Logging.Format, nil)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}
}

// runServe loads the configured index, then serves until ctx is cancelled.
// A failed load aborts startup.
func runServe(ctx context.Context, cfg *config.Config) error {
	log := logger.WithFields(hostFields())

	compression, err := persistence.ParseCompression(cfg.Index.Compression)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	eng := engine.NewEngine(engine.Options{
		Compression:  compression,
		MaxJobs:      cfg.Jobs.Workers,
		JobRetention: cfg.Jobs.Retention,
		Metrics:      m,
	})
	defer eng.Close()

	if err := eng.LoadFromFile(cfg.Index.Path); err != nil {
		return err
	}

	var queryCache cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedis(ctx, &redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		}, cfg.Cache.TTL)
		if err != nil {
			log.WithError(err).Warn("query cache unavailable, continuing without it")
		} else {
			defer redisCache.Close()
			queryCache = redisCache
		}
	}

	searcher, err := search.NewService(eng, queryCache, m)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	api.SetupRoutes(router, eng, searcher, api.Options{
		Metrics:          m,
		MetricsPath:      cfg.Metrics.Path,
		DashboardDir:     cfg.Server.DashboardDir,
		MaxBodyBytes:     cfg.Server.MaxBodyBytes,
		MaxUploadBytes:   cfg.Server.MaxUploadBytes,
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		DefaultMaxLength: cfg.Search.DefaultMaxLength,
		DefaultRebuild: services.RebuildRequest{
			RecordsPath: cfg.Index.RecordsPath,
			OutputPath:  cfg.Index.OutputPath,
		},
		RebuildDir: cfg.Index.RebuildDir,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening for HTTP requests")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg))
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

func shutdownTimeout(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownTimeout > 0 {
		return cfg.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
