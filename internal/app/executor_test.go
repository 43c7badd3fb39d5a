package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	errBoom := errors.New("boom")

	all := []Stage{StageCheck, StageFetch, StageVet, StageCommit, StageReply}

	tests := []struct {
		name   string
		failAt Stage
		want   []Stage
	}{
		{name: "every stage runs", want: all},
		{name: "check failure stops early", failAt: StageCheck, want: all[:1]},
		{name: "fetch failure skips commit", failAt: StageFetch, want: all[:2]},
		{name: "vet failure skips commit", failAt: StageVet, want: all[:3]},
		{name: "commit failure skips reply", failAt: StageCommit, want: all[:4]},
		{name: "reply failure", failAt: StageReply, want: all},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ran []Stage

			mark := func(s Stage) error {
				ran = append(ran, s)
				if s == tt.failAt {
					return errBoom
				}

				return nil
			}

			p := Pipeline[int, int, int, string]{
				Name:   "double",
				Check:  func(context.Context, int) error { return mark(StageCheck) },
				Fetch:  func(_ context.Context, in int) (int, error) { return in * 2, mark(StageFetch) },
				Vet:    func(_ context.Context, _ int, raw int) (int, error) { return raw, mark(StageVet) },
				Commit: func(context.Context, int, int) error { return mark(StageCommit) },
				Reply: func(_ context.Context, _ int, v int) (string, error) {
					if v != 42 {
						return "", errors.New("vetted value lost")
					}

					return "ok", mark(StageReply)
				},
			}

			out, err := Run(context.Background(), NewRunner(discardLogger()), p, 21)
			assert.Equal(t, tt.want, ran)

			if tt.failAt == "" {
				require.NoError(t, err)
				assert.Equal(t, "ok", out)

				return
			}

			require.ErrorIs(t, err, errBoom)
			assert.Equal(t, errBoom, StageCause(err))
			assert.Empty(t, out)

			got, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tt.failAt, got)
		})
	}
}

func TestRun_NilStagesAreSkipped(t *testing.T) {
	out, err := Run(context.Background(), NewRunner(nil), Pipeline[string, string, string, string]{Name: "noop"}, "in")

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestStageError(t *testing.T) {
	cause := errors.New("timeout")

	err := &StageError{Pipeline: "load_quotes", Stage: StageFetch, Err: cause}
	assert.Equal(t, "load_quotes: fetch stage: timeout", err.Error())
	assert.ErrorIs(t, err, cause)

	_, ok := FailedStage(cause)
	assert.False(t, ok)
	assert.Equal(t, cause, StageCause(cause))
}
