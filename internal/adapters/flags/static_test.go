package flags

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jsamuelsen/quote-session/internal/ports"
)

var _ ports.FeatureFlags = (*Static)(nil)

func newTestFlags() *Static {
	return NewStatic(map[string]any{
		"next-avoid-repeat": true,
		"Beta-Search":       "true",
		"broken-bool":       "sometimes",
		"remote-limit":      25,
		"float-limit":       float64(40),
		"string-limit":      " 15 ",
		"broken-int":        "many",
		"wrong-type":        []string{"x"},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStatic_IsEnabled(t *testing.T) {
	f := newTestFlags()
	ctx := context.Background()

	tests := []struct {
		flag string
		def  bool
		want bool
	}{
		{ports.FlagNextAvoidRepeat, false, true},
		{"beta-search", false, true},
		{"broken-bool", true, true},
		{"wrong-type", false, false},
		{"missing", true, true},
		{"missing", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, f.IsEnabled(ctx, tt.flag, tt.def))
		})
	}
}

func TestStatic_GetInt(t *testing.T) {
	f := newTestFlags()
	ctx := context.Background()

	tests := []struct {
		flag string
		want int
	}{
		{ports.FlagRemoteLimit, 25},
		{"float-limit", 40},
		{"string-limit", 15},
		{"broken-int", 7},
		{"wrong-type", 7},
		{"missing", 7},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			assert.Equal(t, tt.want, f.GetInt(ctx, tt.flag, 7))
		})
	}
}

func TestNewStatic_NilMap(t *testing.T) {
	f := NewStatic(nil, nil)

	assert.False(t, f.IsEnabled(context.Background(), ports.FlagNextAvoidRepeat, false))
	assert.Equal(t, 3, f.GetInt(context.Background(), ports.FlagRemoteLimit, 3))
}
