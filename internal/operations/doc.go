// Package operations runs extractions in the background and keeps a bounded
// in-memory history of their results.
//
// A run moves pending -> running -> completed|failed. Step transitions and
// the final summary are pushed to a Publisher, which the HTTP layer backs
// with the WebSocket hub. Only one browser run may be active at a time;
// concurrent extractions of the same target share a single fetch.
package operations
