package narrative

import (
	"context"
	"time"

	"civic-watch/incident-reports-backend/internal/stats"
)

// Request carries everything a provider needs to produce the narrative text
// for one reporting period.
type Request struct {
	Statistics    stats.ReportStatistics
	PeriodStart   time.Time
	PeriodEnd     time.Time
	IncidentLines []string // pre-capped incident detail lines, may be empty
}

// Generator produces a natural-language summary for a reporting period. Calls
// are best-effort: implementations must honor ctx cancellation, and callers
// are expected to time-box the call and continue without the narrative when
// it fails.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// FallbackText is substituted for the narrative when generation fails.
const FallbackText = "El resumen automatico no esta disponible para este periodo."
