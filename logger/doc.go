// Package logger provides structured logging on top of Uber's zap.
//
// LoggerClient writes JSON (or console) entries to stderr with a timestamp,
// level, caller, pid and service field. Every method takes a message, an
// optional error and optional field maps:
//
//	log := logger.NewLoggerClient(logger.Config{
//		Level:         logger.Info,
//		EnableTracing: true,
//		ServiceName:   "mackerel-tracing-sample",
//	})
//	log.Info("listening", nil, map[string]interface{}{"addr": ":3000"})
//
// When EnableTracing is set, the *WithContext variants add the trace_id and
// span_id of the recording span found in the context, which lets Mackerel
// link log lines to the traces exported by package tracer.
//
// FXModule provides both *LoggerClient and the Logger interface and syncs
// the logger when the fx application stops.
package logger
