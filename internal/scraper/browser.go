package scraper

import (
	"context"

	"costsheet/pkg/contracts/domain"
)

// Page is one browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Location returns the URL the tab ended up on after redirects.
	Location(ctx context.Context) (string, error)
	// ReadTable returns the header row and cell text of the rendered sheet.
	ReadTable(ctx context.Context) (domain.Table, error)
}

// Browser launches a browser and opens a single tab. The returned release
// func closes the tab and the browser process and must always be called
// when err is nil.
type Browser interface {
	Open(ctx context.Context) (Page, func(), error)
}
