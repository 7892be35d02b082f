// Package scraper implements the live extraction pipeline. It drives a
// Chrome instance through chromedp, reads the rendered sheet as a table and
// hands the cost column to the dataprocessing package.
//
// Authentication is never performed here. The browser runs on a profile
// that already holds a Google session; when the sheet redirects to the
// sign-in page the run ends with a sign_in_required result.
package scraper
