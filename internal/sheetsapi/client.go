// Package sheetsapi reads a sheet's cell values through the Google Sheets
// API v4. It is the browser-free alternative to the live pipeline.
package sheetsapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"costsheet/internal/config"
	apperrors "costsheet/internal/errors"
	"costsheet/pkg/contracts/domain"
)

// Client wraps the Sheets service.
type Client struct {
	svc       *sheets.Service
	readRange string
	logger    *slog.Logger
}

// NewClient authenticates with the service-account file or API key from
// cfg. Extra options are appended last, so callers can override the
// endpoint or HTTP client.
func NewClient(ctx context.Context, cfg config.SheetConfig, logger *slog.Logger, extra ...option.ClientOption) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		credentialsJSON, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, apperrors.NewConfigError("cannot read Sheets credentials file", err)
		}
		opts = append(opts,
			option.WithCredentialsJSON(credentialsJSON),
			option.WithScopes(sheets.SpreadsheetsReadonlyScope),
		)
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	case len(extra) == 0:
		return nil, apperrors.NewConfigError("Sheets API source needs an API key or a credentials file", nil)
	}
	opts = append(opts, extra...)

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	readRange := cfg.Range
	if readRange == "" {
		readRange = "A1:ZZ"
	}

	return &Client{
		svc:       svc,
		readRange: readRange,
		logger:    logger.With(slog.String("component", "sheets_api")),
	}, nil
}

// FetchTable reads the configured range of the tab named by ref.GID, or of
// the first tab when no gid is given. Values are unformatted so currency
// and grouping formats never reach coercion. Dates come back as their
// displayed text so they never pass for numbers.
func (c *Client) FetchTable(ctx context.Context, ref SheetRef) (domain.Table, error) {
	rng := c.readRange
	title := ""
	if ref.GID != "" {
		t, err := c.sheetTitle(ctx, ref)
		if err != nil {
			return domain.Table{}, err
		}
		title = t
		rng = fmt.Sprintf("'%s'!%s", t, c.readRange)
	}

	resp, err := c.svc.Spreadsheets.Values.Get(ref.ID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).
		Do()
	if err != nil {
		return domain.Table{}, classify(err)
	}

	c.logger.InfoContext(ctx, "sheet values fetched",
		slog.String("spreadsheet_id", ref.ID),
		slog.String("range", resp.Range),
		slog.Int("rows", len(resp.Values)))

	return domain.NewTable(title, toStrings(resp.Values)), nil
}

func (c *Client) sheetTitle(ctx context.Context, ref SheetRef) (string, error) {
	gid, err := strconv.ParseInt(ref.GID, 10, 64)
	if err != nil {
		return "", apperrors.NewAppValidationError(fmt.Sprintf("invalid sheet gid %q", ref.GID))
	}

	ss, err := c.svc.Spreadsheets.Get(ref.ID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	for _, s := range ss.Sheets {
		if s.Properties != nil && s.Properties.SheetId == gid {
			return s.Properties.Title, nil
		}
	}
	return "", apperrors.NewSourceUnreachableError(fmt.Sprintf("no tab with gid %s", ref.GID), nil)
}

func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.NewSignInRequiredError("the Sheets API credentials cannot read this spreadsheet")
		case http.StatusNotFound:
			return apperrors.NewSourceUnreachableError("spreadsheet not found", err)
		}
	}
	return apperrors.NewSourceUnreachableError("Sheets API request failed", err)
}

func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			out[i][j] = cellString(v)
		}
	}
	return out
}

func cellString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
