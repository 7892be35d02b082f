package operations

import (
	"context"

	"costsheet/internal/scraper"
	"costsheet/pkg/contracts/domain"
)

// Source produces a summary for one target. Implementations report
// failures through the summary and never panic past Run.
type Source interface {
	Kind() domain.SourceKind
	Run(ctx context.Context, target string, reporter scraper.Reporter) domain.CostSummary
}

// Publisher is notified as runs progress.
type Publisher interface {
	PublishStep(run domain.Run, step domain.StepRecord)
	PublishStatus(run domain.Run)
	PublishResult(run domain.Run)
}

type nopPublisher struct{}

func (nopPublisher) PublishStep(domain.Run, domain.StepRecord) {}
func (nopPublisher) PublishStatus(domain.Run)                  {}
func (nopPublisher) PublishResult(domain.Run)                  {}
