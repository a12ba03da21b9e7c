// Package trace sets up structured logging for schemelex.
//
// Loggers are plain *slog.Logger values. New fans records out to up to three
// handlers through slog-multi:
//
//   - a text handler on stderr at the configured level;
//   - a JSON handler on the log file, when one is configured;
//   - an in-memory ring that keeps the most recent records at debug level,
//     dumped when the command crashes.
//
// # Levels
//
// ParseLevel accepts debug, info, warn, error and off. The default is warn,
// so a normal run prints nothing unless something is wrong.
//
// # Usage
//
//	schemelex tokenize --log-level=debug --log-file=scan.jsonl testdata/
package trace
