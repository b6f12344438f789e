// Package config declares the runtime configuration, parsed from the
// environment by ardanlabs/conf in cmd/server.
package config

import "time"

type Config struct {
	Web      Web
	Upstream Upstream
	Session  Session
	Rate     Rate
	Cors     Cors
}

type Web struct {
	Address         string        `conf:"default:0.0.0.0:4000"`
	ReadTimeout     time.Duration `conf:"default:5s"`
	WriteTimeout    time.Duration `conf:"default:10s"`
	IdleTimeout     time.Duration `conf:"default:120s"`
	ShutdownTimeout time.Duration `conf:"default:20s"`
}

// Upstream points at the remote shop API everything is delegated to.
type Upstream struct {
	URL     string        `conf:"default:https://dummyjson.com"`
	Timeout time.Duration `conf:"default:10s"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:24h"`
	DataDir  string        `conf:"default:./data"`
	// Expiry bounds how long an idle browser session keeps its store
	// pair in memory; the persisted identity survives eviction.
	Expiry time.Duration `conf:"default:1h"`
}

// Rate shapes the login limiter: Burst requests, then one per Every,
// per client, forgotten after ExpiryMinutes of silence.
type Rate struct {
	Burst         int           `conf:"default:5"`
	Every         time.Duration `conf:"default:2s"`
	ExpiryMinutes int           `conf:"default:60"`
}

type Cors struct {
	Origin string
}
