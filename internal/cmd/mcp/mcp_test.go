package mcp

import (
	"flag"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "stdio" {
		t.Fatalf("expected default transport stdio, got %q", cfg.Transport)
	}
	if cfg.Host != "0.0.0.0" {
		t.Fatalf("expected default host, got %q", cfg.Host)
	}
	if cfg.Port != "8000" {
		t.Fatalf("expected default port, got %q", cfg.Port)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("KNOWLEDGE_RETRIEVER_MCP_TRANSPORT", "http")
	t.Setenv("KNOWLEDGE_RETRIEVER_MCP_HOST", "127.0.0.1")
	t.Setenv("KNOWLEDGE_RETRIEVER_MCP_PORT", "9000")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected transport http, got %q", cfg.Transport)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("expected env host, got %q", cfg.Host)
	}
	if cfg.Port != "9000" {
		t.Fatalf("expected env port, got %q", cfg.Port)
	}
}

func TestParseConfigFlagOverrides(t *testing.T) {
	t.Setenv("KNOWLEDGE_RETRIEVER_MCP_HOST", "env-host")

	fs := flag.NewFlagSet("mcp", flag.ContinueOnError)
	args := []string{"-transport", "http", "-host", "flag-host", "-port", "9090"}
	cfg, err := ParseConfig(fs, args)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Transport != "http" {
		t.Fatalf("expected transport http, got %q", cfg.Transport)
	}
	if cfg.Host != "flag-host" {
		t.Fatalf("expected flag host, got %q", cfg.Host)
	}
	if cfg.Port != "9090" {
		t.Fatalf("expected flag port, got %q", cfg.Port)
	}
}
