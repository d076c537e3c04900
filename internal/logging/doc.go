// Package logging builds the process slog.Logger from LogConfig: a JSON
// handler on stdout, optionally teed into a size-rotated file.
package logging
