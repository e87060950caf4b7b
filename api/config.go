package api

import "time"

type Config struct {
	Addr            string        `envconfig:"ADDR" default:":3001"`
	CORSOrigins     []string      `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" split_words:"true" default:"2m"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`

	// Per client IP: GlobalLimit requests per GlobalWindow on /api, ChatLimit
	// messages per ChatWindow on the chat endpoint.
	GlobalLimit  int           `envconfig:"GLOBAL_LIMIT" split_words:"true" default:"100"`
	GlobalWindow time.Duration `envconfig:"GLOBAL_WINDOW" split_words:"true" default:"15m"`
	ChatLimit    int           `envconfig:"CHAT_LIMIT" split_words:"true" default:"20"`
	ChatWindow   time.Duration `envconfig:"CHAT_WINDOW" split_words:"true" default:"1m"`
	// LimiterClients caps how many client IPs each limiter tracks.
	LimiterClients int `envconfig:"LIMITER_CLIENTS" split_words:"true" default:"10000"`
	// TrustedProxies lists proxy addresses or CIDR ranges allowed to set
	// X-Forwarded-For. Empty means limits key on the peer address only.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES" split_words:"true"`
}

// DefaultConfig mirrors the envconfig defaults for callers that build a server in code.
func DefaultConfig() Config {
	return Config{
		Addr:            ":3001",
		CORSOrigins:     []string{"http://localhost:3000"},
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    2 * time.Minute,
		ShutdownTimeout: 10 * time.Second,
		GlobalLimit:     100,
		GlobalWindow:    15 * time.Minute,
		ChatLimit:       20,
		ChatWindow:      time.Minute,
		LimiterClients:  10000,
	}
}
