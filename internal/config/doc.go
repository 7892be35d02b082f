// Package config loads the service configuration.
//
// Values are resolved in this order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. A YAML file: config.yaml or configs/config.yaml
//	3. The legacy variables GOOGLE_SHEET_URL, CHROME_PATH and HEADLESS
//	4. COSTSHEET_* environment variables
//
// A .env file (COSTSHEET_ENV_FILE, default ".env") is read into the process
// environment first and never overrides variables that are already set.
// SaveEnvValue writes a key back to that file, which is how the dashboard
// persists the sheet URL.
//
//	COSTSHEET_SERVER_PORT=8080
//	COSTSHEET_SHEET_URL=https://docs.google.com/spreadsheets/d/<id>/edit
//	COSTSHEET_BROWSER_PROFILE_DIR=/home/me/.config/costsheet-chrome
//	COSTSHEET_BROWSER_HEADLESS=false
package config
