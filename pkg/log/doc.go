// Package log records controller events: zone switching, schedule changes,
// cycle starts, hold changes and anomalies.
//
// It is separate from operational logging (slog). The event log is the
// durable, machine-readable history of what the controller did to the
// valves, and can be rendered as the classic one-line text form:
//
//	0612 060000|on|2,3|6
//
// # Basic Usage
//
//	// Development: events to the console via slog
//	cfg.EventLog = log.NewSlogAdapter(slog.Default())
//
//	// Production: CBOR file
//	fl, _ := log.NewFileLogger(afero.NewOsFs(), "/var/lib/sprinkler/events.slog")
//	cfg.EventLog = log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Files are a stream of CBOR-encoded Events with integer keys. Reader
// iterates them with an optional Filter.
package log
