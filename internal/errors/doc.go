// Package errors holds the error vocabulary of the service: APIError for
// handler-level failures, AppError for the domain taxonomy (unreachable
// sheet, missing sign-in, missing cost column, unreadable file) and an
// ErrorHandler that renders both as RFC 7807 problem documents.
package errors
