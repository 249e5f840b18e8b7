// Package logging wraps zap with the conventions shared by ctxlab
// components: a trace level below debug, context-carried correlation fields
// (run id, step name, OTEL trace/span), named child loggers per component,
// and a dual core that can mirror entries to an OTEL log exporter.
//
// Components never construct zap loggers directly; they receive a *Logger
// and derive named children:
//
//	log := logger.Named("runner")
//	log.Info(ctx, "gate finished", zap.String("gate", "validate"))
package logging
