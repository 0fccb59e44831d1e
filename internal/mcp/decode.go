package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/pulse/internal/config"
)

// defaulter fills a request's unset fields from config after decoding, so
// handlers receive ready-to-use inputs instead of re-deriving defaults.
type defaulter interface {
	applyDefaults(cfg *config.Config)
}

// decode unmarshals tool arguments into a typed request and applies the
// request's config-derived defaults.
func decode[T any](req mcp.CallToolRequest, cfg *config.Config) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal arguments: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal arguments: %w", err)
	}
	if d, ok := any(&result).(defaulter); ok {
		d.applyDefaults(cfg)
	}
	return result, nil
}
