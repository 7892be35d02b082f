package sheetsapi

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var sheetPathRE = regexp.MustCompile(`^/spreadsheets/d/([a-zA-Z0-9_-]+)`)

// SheetRef identifies one spreadsheet and, optionally, one tab in it.
type SheetRef struct {
	ID  string
	GID string
}

// ParseSheetURL extracts the spreadsheet ID and tab gid from a Google
// Sheets link such as https://docs.google.com/spreadsheets/d/<id>/edit#gid=0.
func ParseSheetURL(raw string) (SheetRef, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return SheetRef{}, fmt.Errorf("invalid sheet URL: %w", err)
	}
	if u.Scheme != "https" || u.Host != "docs.google.com" {
		return SheetRef{}, fmt.Errorf("invalid sheet URL %q: expected https://docs.google.com/spreadsheets/...", raw)
	}

	m := sheetPathRE.FindStringSubmatch(u.Path)
	if m == nil {
		return SheetRef{}, fmt.Errorf("invalid sheet URL %q: no spreadsheet id", raw)
	}

	ref := SheetRef{ID: m[1], GID: u.Query().Get("gid")}
	if frag, err := url.ParseQuery(u.Fragment); err == nil && frag.Get("gid") != "" {
		ref.GID = frag.Get("gid")
	}
	return ref, nil
}

// EditURL is the canonical editor link.
func (r SheetRef) EditURL() string {
	u := "https://docs.google.com/spreadsheets/d/" + r.ID + "/edit"
	if r.GID != "" {
		u += "#gid=" + r.GID
	}
	return u
}

// HTMLViewURL is the read-only HTML rendering of the sheet. Unlike the
// canvas-based editor it exposes every cell as a table element.
func (r SheetRef) HTMLViewURL() string {
	u := "https://docs.google.com/spreadsheets/d/" + r.ID + "/htmlview"
	if r.GID != "" {
		u += "?gid=" + r.GID
	}
	return u
}
