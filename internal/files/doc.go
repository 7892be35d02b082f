// Package files locates spreadsheet exports on disk.
//
// A Discovery resolves relative directories against a base path and lists
// the files whose extension the parsers accept, so the CLI can summarize
// the newest export in a downloads folder without naming it.
//
// Example usage:
//
//	discovery := files.NewDiscovery(home, ".csv", ".xlsx")
//	latest, err := discovery.Latest("Downloads")
package files
