// Package services implements the business logic between the HTTP handlers
// and the extraction pipelines.
//
// # Available Services
//
//	- SummaryService: summarizes uploaded files and raw value lists
//	- ExtractionService: starts live runs and looks up run history
//	- ConfigService: reports and updates the sheet configuration
//	- HealthService: health, readiness, liveness and version checks
//
// APISource adapts the Sheets API client to the run pipeline so that live
// runs can read a sheet without a browser.
//
// # Error Handling
//
// Services return *errors.APIError or *errors.AppError values that the
// transport layer renders as RFC 7807 problem details:
//
//	- validation errors for invalid input (400, 422)
//	- not found errors for unknown runs (404)
//	- conflict errors for a second live run (409)
//	- config errors for a source that is not set up (503)
//
// # Testing
//
// Dependencies are narrow interfaces so tests can use testify mocks:
//
//	runs := new(mockRunManager)
//	runs.On("Start", mock.Anything, domain.SourceBrowser, url).Return(run, nil)
//	svc := NewExtractionService(runs, cfgSvc, logger)
package services
