// Package mcp exposes the analytics engine as an MCP server over stdio.
package mcp

import (
	"context"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"cashrisk-mcp/internal/config"
	"cashrisk-mcp/internal/ingest"
	"cashrisk-mcp/internal/ledger"
	"cashrisk-mcp/internal/risk"
)

// Server holds the state shared by the MCP tool handlers.
type Server struct {
	cfg      config.AppConfig
	analyzer *risk.Analyzer

	mu     sync.Mutex
	series map[string]ledger.Series
}

// NewServer creates an MCP server bound to the given configuration.
func NewServer(cfg config.AppConfig) *Server {
	return &Server{
		cfg:      cfg,
		analyzer: risk.NewAnalyzer(cfg.Thresholds),
		series:   make(map[string]ledger.Series),
	}
}

// Serve registers the tools and runs the stdio transport until the client
// disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, version string) error {
	srv := sdk.NewServer(&sdk.Implementation{
		Name:    "cashrisk-mcp",
		Version: version,
	}, nil)

	if err := s.registerTools(srv); err != nil {
		return err
	}

	log.Info().Str("version", version).Msg("Starting MCP server on stdio")
	return srv.Run(ctx, &sdk.StdioTransport{})
}

// loadSeries returns the transaction series for the given path, falling back
// to the configured DATA_PATH. Loaded files are cached for the lifetime of
// the server process.
func (s *Server) loadSeries(path string) (ledger.Series, error) {
	if path == "" {
		path = s.cfg.DataPath
	}
	if path == "" {
		return ledger.Series{}, ledger.NewValidationError("data_path", "no transactions file configured; set DATA_PATH or pass data_path")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cached, ok := s.series[path]; ok {
		return cached, nil
	}

	series, err := ingest.ReadFile(path)
	if err != nil {
		return ledger.Series{}, err
	}
	s.series[path] = series
	log.Info().Str("path", path).Int("rows", len(series.Rows)).Msg("Transaction series loaded")
	return series, nil
}
