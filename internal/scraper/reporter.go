package scraper

import "costsheet/pkg/contracts/domain"

// Reporter receives step transitions while a live run progresses.
type Reporter interface {
	ReportStep(step domain.StepRecord)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(step domain.StepRecord)

func (f ReporterFunc) ReportStep(step domain.StepRecord) { f(step) }

// NopReporter discards every step.
type NopReporter struct{}

func (NopReporter) ReportStep(domain.StepRecord) {}
