// Package flags provides a ports.FeatureFlags implementation backed by the
// features section of the configuration.
package flags

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// Static serves flags from a fixed map loaded at startup.
// Values may be bools, numbers or strings that parse as either.
type Static struct {
	values map[string]any
	logger *slog.Logger
}

// NewStatic creates a flag provider over values. Keys are matched case-insensitively.
func NewStatic(values map[string]any, logger *slog.Logger) *Static {
	if logger == nil {
		logger = slog.Default()
	}

	normalized := make(map[string]any, len(values))
	for k, v := range values {
		normalized[strings.ToLower(k)] = v
	}

	return &Static{
		values: normalized,
		logger: logger.With(slog.String("component", "flags.Static")),
	}
}

// IsEnabled implements ports.FeatureFlags.
func (s *Static) IsEnabled(ctx context.Context, flag string, defaultValue bool) bool {
	raw, ok := s.values[strings.ToLower(flag)]
	if !ok {
		return defaultValue
	}

	switch v := raw.(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			s.invalid(ctx, flag, raw)
			return defaultValue
		}

		return b
	default:
		s.invalid(ctx, flag, raw)
		return defaultValue
	}
}

// GetInt implements ports.FeatureFlags.
func (s *Static) GetInt(ctx context.Context, flag string, defaultValue int) int {
	raw, ok := s.values[strings.ToLower(flag)]
	if !ok {
		return defaultValue
	}

	switch v := raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case uint64:
		return int(v) //nolint:gosec // flag values are small
	case float64:
		return int(v)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			s.invalid(ctx, flag, raw)
			return defaultValue
		}

		return n
	default:
		s.invalid(ctx, flag, raw)
		return defaultValue
	}
}

func (s *Static) invalid(ctx context.Context, flag string, value any) {
	s.logger.WarnContext(ctx, "ignoring malformed feature flag",
		slog.String("flag", flag),
		slog.Any("value", value),
	)
}
