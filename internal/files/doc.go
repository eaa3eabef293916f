// Package files handles snapshot discovery and the file system operations
// around them.
//
// Discovery locates timestamped snapshot CSVs (options_data_*,
// option_data_*, darkpool_data_*) and orders them newest first by the
// filename stamp, falling back to mtime when a file was renamed by hand.
// Manager covers the write side used by the exporter.
package files
