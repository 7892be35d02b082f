package services

import (
	"net/http"

	apierrors "costsheet/internal/errors"
)

var (
	// ErrNoSheetURL is returned when a run is requested without a URL and
	// none is configured.
	ErrNoSheetURL = apierrors.New(http.StatusUnprocessableEntity, apierrors.CodeNoSheetURL,
		"no sheet URL configured; set one on the dashboard or pass url")

	// ErrAPISourceUnavailable is returned when the Sheets API source has
	// no credentials.
	ErrAPISourceUnavailable = apierrors.New(http.StatusServiceUnavailable, apierrors.CodeAPISourceUnavailable,
		"the Sheets API source is not configured; set COSTSHEET_SHEET_API_KEY or COSTSHEET_SHEET_CREDENTIALS_FILE")
)
