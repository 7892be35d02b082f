package sheetsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"costsheet/internal/config"
	apperrors "costsheet/internal/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), config.SheetConfig{Range: "A1:ZZ"},
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchTableFirstTab(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/abc/values/A1:ZZ", r.URL.Path)
		assert.Equal(t, "UNFORMATTED_VALUE", r.URL.Query().Get("valueRenderOption"))
		assert.Equal(t, "FORMATTED_STRING", r.URL.Query().Get("dateTimeRenderOption"))
		writeJSON(w, map[string]interface{}{
			"range":          "Sheet1!A1:ZZ1000",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Item", "Cost"},
				{"pen", 100},
				{"ink", 250.5},
				{"pad"},
			},
		})
	})

	table, err := c.FetchTable(context.Background(), SheetRef{ID: "abc"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Item", "Cost"}, table.Headers)
	assert.Equal(t, []string{"100", "250.5", ""}, table.Column(1))
}

func TestFetchTableByGID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v4/spreadsheets/abc":
			writeJSON(w, map[string]interface{}{
				"sheets": []interface{}{
					map[string]interface{}{"properties": map[string]interface{}{"sheetId": 0, "title": "Notes"}},
					map[string]interface{}{"properties": map[string]interface{}{"sheetId": 7, "title": "Budget"}},
				},
			})
		case "/v4/spreadsheets/abc/values/'Budget'!A1:ZZ":
			writeJSON(w, map[string]interface{}{"values": [][]interface{}{{"Cost"}, {12}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	table, err := c.FetchTable(context.Background(), SheetRef{ID: "abc", GID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "Budget", table.Name)
	assert.Equal(t, []string{"12"}, table.Column(0))
}

func TestFetchTableErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		wantType apperrors.ErrorType
	}{
		{"forbidden", http.StatusForbidden, apperrors.ErrTypeSignIn},
		{"missing", http.StatusNotFound, apperrors.ErrTypeSourceUnreachable},
		{"server", http.StatusInternalServerError, apperrors.ErrTypeSourceUnreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprintf(w, `{"error":{"code":%d,"message":"nope"}}`, tt.status)
			})

			_, err := c.FetchTable(context.Background(), SheetRef{ID: "abc"})
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)
		})
	}
}

func TestFetchTableUnknownGID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"sheets": []interface{}{}})
	})

	_, err := c.FetchTable(context.Background(), SheetRef{ID: "abc", GID: "9"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeSourceUnreachable))

	_, err = c.FetchTable(context.Background(), SheetRef{ID: "abc", GID: "x"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
}

func TestNewClientNeedsCredentials(t *testing.T) {
	_, err := NewClient(context.Background(), config.SheetConfig{}, slog.Default())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = NewClient(context.Background(), config.SheetConfig{CredentialsFile: "/nonexistent.json"}, slog.Default())
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}
