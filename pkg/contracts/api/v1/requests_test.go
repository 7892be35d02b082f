package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"costsheet/pkg/contracts/domain"
)

func TestSummarizeValuesRequestAcceptsMixedCells(t *testing.T) {
	var req SummarizeValuesRequest
	err := json.Unmarshal([]byte(`{"values":[100.00, "250.50", null, 9e2, "abc", true]}`), &req)
	require.NoError(t, err)

	assert.Equal(t, []string{"100.00", "250.50", "", "9e2", "abc", "true"}, req.Cells())
}

func TestSummarizeValuesRequestRejectsBadString(t *testing.T) {
	var req SummarizeValuesRequest
	assert.Error(t, json.Unmarshal([]byte(`{"values":["\x"]}`), &req))
}

func TestExtractionStartRequestSourceKind(t *testing.T) {
	assert.Equal(t, domain.SourceAPI, ExtractionStartRequest{Source: "api"}.SourceKind())
	assert.Equal(t, domain.SourceBrowser, ExtractionStartRequest{}.SourceKind())
}
