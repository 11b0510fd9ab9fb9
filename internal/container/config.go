// Package container provides dependency injection and lifecycle management
// for the expense approval service.
package container

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyjia/expense-approval/internal/config"
	"github.com/garyjia/expense-approval/internal/infrastructure/external/lark"
	"github.com/garyjia/expense-approval/internal/infrastructure/external/redis"
	httpserver "github.com/garyjia/expense-approval/internal/interfaces/http"
	"github.com/garyjia/expense-approval/pkg/database"
)

// Option configures a Container
type Option func(*options)

type options struct {
	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// WithRegistry sets where metrics are registered and scraped from. Tests pass
// a fresh prometheus.Registry so containers do not collide.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registerer = reg
		o.gatherer = reg
	}
}

func defaultOptions() options {
	return options{
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		BusyTimeout:     cfg.Database.BusyTimeout,
	}
}

func serverConfig(cfg *config.Config) httpserver.ServerConfig {
	return httpserver.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		DevMode:      cfg.Auth.DevMode,
	}
}

func larkConfig(cfg *config.Config) lark.Config {
	return lark.Config{
		AppID:     cfg.Lark.AppID,
		AppSecret: cfg.Lark.AppSecret,
		BaseURL:   cfg.Lark.BaseURL,
		Timeout:   cfg.Lark.APITimeout,
	}
}

func redisConfig(cfg *config.Config) redis.Config {
	return redis.Config{
		URL:         cfg.Redis.URL,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: cfg.Redis.DialTimeout,
	}
}
