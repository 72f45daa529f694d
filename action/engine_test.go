package action

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRunChunksAllSucceed(t *testing.T) {
	e := &Engine{
		ChunkN: 2,
		Submit: func(ctx context.Context, devices []string) (string, error) {
			return "action-" + devices[0], nil
		},
		Poll: func(ctx context.Context, actionID string, timeout, interval time.Duration) (string, string, bool, error) {
			return "Success", "", false, nil
		},
	}
	res, err := e.Run(context.Background(), AttachWANEdge, []string{"10.0.0.3", "10.0.0.1", "10.0.0.2"})
	require.NoError(t, err)
	assert.Len(t, res.Chunks, 2)
	assert.Equal(t, OutcomeSuccess, res.Outcome())
}

func TestEngineOneChunkSubmitFailureDoesNotAbortOthers(t *testing.T) {
	calls := 0
	e := &Engine{
		ChunkN: 1,
		Submit: func(ctx context.Context, devices []string) (string, error) {
			calls++
			if devices[0] == "bad" {
				return "", errors.New("submit failed")
			}
			return "action-ok", nil
		},
		Poll: func(ctx context.Context, actionID string, timeout, interval time.Duration) (string, string, bool, error) {
			return "Success", "", false, nil
		},
	}
	res, err := e.Run(context.Background(), AttachWANEdge, []string{"bad", "good"})
	require.NoError(t, err)
	require.Len(t, res.Chunks, 2)
	assert.Equal(t, 2, calls)
	assert.Equal(t, OutcomePartialFailure, res.Outcome())
}

func TestEngineTimeoutSurfacesAsTimeoutOutcome(t *testing.T) {
	e := &Engine{
		ChunkN: 1,
		Submit: func(ctx context.Context, devices []string) (string, error) { return "a1", nil },
		Poll: func(ctx context.Context, actionID string, timeout, interval time.Duration) (string, string, bool, error) {
			return "In Progress", "", true, nil
		},
	}
	res, err := e.Run(context.Background(), CertificateSync, []string{"dev1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout, res.Outcome())
}

func TestCategoryResultOutcomeRollup(t *testing.T) {
	tests := []struct {
		name    string
		chunks  []Outcome
		want    Outcome
	}{
		{"all success", []Outcome{OutcomeSuccess, OutcomeSuccess}, OutcomeSuccess},
		{"single failure of one chunk", []Outcome{OutcomeFailure}, OutcomeFailure},
		{"one of many fails", []Outcome{OutcomeSuccess, OutcomeFailure}, OutcomePartialFailure},
		{"any timeout dominates", []Outcome{OutcomeFailure, OutcomeTimeout}, OutcomeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cr CategoryResult
			for _, o := range tt.chunks {
				cr.Chunks = append(cr.Chunks, ChunkResult{Outcome: o})
			}
			assert.Equal(t, tt.want, cr.Outcome())
		})
	}
}

func TestSequenceStopsOnlyOnFatalError(t *testing.T) {
	var ran []Category
	_, err := Sequence(AttachOrder, func(cat Category) (CategoryResult, error) {
		ran = append(ran, cat)
		return CategoryResult{Category: cat, Chunks: []ChunkResult{{Outcome: OutcomeFailure}}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, AttachOrder, ran)
}

func TestSequenceAbortsOnFatalErr(t *testing.T) {
	var ran []Category
	sentinel := errors.New("boom")
	_, err := Sequence(AttachOrder, func(cat Category) (CategoryResult, error) {
		ran = append(ran, cat)
		if cat == AttachVSmartTemplate {
			return CategoryResult{}, sentinel
		}
		return CategoryResult{Category: cat}, nil
	})
	require.ErrorIs(t, err, sentinel)
	assert.Equal(t, []Category{AttachWANEdge, AttachVSmartTemplate}, ran)
}
