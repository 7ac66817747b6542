package sandbox

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const contextKeyAnalysisID contextKey = "analysis_id"

// WithAnalysisID tags ctx with a fresh analysis id unless it already has one.
func WithAnalysisID(ctx context.Context) context.Context {
	if AnalysisIDFromContext(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, contextKeyAnalysisID, uuid.New().String())
}

func AnalysisIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyAnalysisID).(string); ok {
		return id
	}
	return ""
}
