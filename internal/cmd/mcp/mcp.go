// Package mcp parses MCP command flags and selects stdio or HTTP transport.
package mcp

import (
	"context"
	"flag"
	"log"
	"net"
	"time"

	"github.com/fsyj123/knowledge-retrive/internal/mcp/service"
	"github.com/fsyj123/knowledge-retrive/internal/platform/config"
	"github.com/fsyj123/knowledge-retrive/internal/platform/otel"
)

// Config holds MCP command configuration.
type Config struct {
	Transport string `env:"KNOWLEDGE_RETRIEVER_MCP_TRANSPORT" envDefault:"stdio"`
	Host      string `env:"KNOWLEDGE_RETRIEVER_MCP_HOST"      envDefault:"0.0.0.0"`
	Port      string `env:"KNOWLEDGE_RETRIEVER_MCP_PORT"      envDefault:"8000"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport type: stdio or http")
	fs.StringVar(&cfg.Host, "host", cfg.Host, "HTTP server host (for HTTP transport)")
	fs.StringVar(&cfg.Port, "port", cfg.Port, "HTTP server port (for HTTP transport)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the knowledge retrieval MCP server.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	return service.Run(ctx, service.Config{
		Transport: service.TransportKind(cfg.Transport),
		HTTPAddr:  net.JoinHostPort(cfg.Host, cfg.Port),
	})
}
