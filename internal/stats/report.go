// Package stats contains statistics calculations and reporting.
package stats

import (
	"context"

	"github.com/verte-zerg/tuicps/internal/model"
)

// SessionLister lists finished sessions.
type SessionLister interface {
	ListSessions(ctx context.Context, cfg model.HistoryConfig) ([]model.SessionRecord, error)
}

// Report contains precomputed data for history rendering.
type Report struct {
	Sessions []model.SessionRecord
	Summary  Summary
	Trend    []float64
}

// BuildReport loads and prepares data for history rendering.
func BuildReport(ctx context.Context, st SessionLister, cfg model.HistoryConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Sessions: sessions,
		Summary:  Summarize(sessions),
		Trend:    MovingAverage(CPSValues(sessions), cfg.CurveWindow),
	}, nil
}
