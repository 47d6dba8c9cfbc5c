package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
}

func NewServiceLogger(logger *slog.Logger, component string) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", "question-bank", "component", component),
	}
}

// LogOperation logs the outcome of one operation. Misses are info, rejected
// input is warn, everything else that failed is error.
func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, resource string, duration time.Duration, err error, extra ...slog.Attr) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		switch {
		case IsValidation(err) || IsBadRequest(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsUnauthorized(err):
			level = slog.LevelWarn
			status = "unauthorized"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("resource", resource),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}
	attrs = append(attrs, extra...)

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if issues := ValidationIssues(err); len(issues) > 0 {
			attrs = append(attrs, slog.Int("validation_errors_count", len(issues)))
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// LogValidationError logs up to the first five issues of a rejected question set
func (l *ServiceLogger) LogValidationError(ctx context.Context, operation string, issues ValidationErrors) {
	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.Int("error_count", len(issues)),
	}

	for i, issue := range issues {
		if i >= 5 {
			break
		}
		attrs = append(attrs, slog.Group(fmt.Sprintf("error_%d", i+1),
			slog.String("field", issue.Field),
			slog.String("message", issue.Message),
			slog.String("rule", issue.Rule),
		))
	}

	l.logger.LogAttrs(ctx, slog.LevelWarn, "Validation failed", attrs...)
}

// ContextualLogger times one operation
type ContextualLogger struct {
	logger    *ServiceLogger
	operation string
	startTime time.Time
	ctx       context.Context
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		operation: operation,
		startTime: time.Now(),
		ctx:       ctx,
	}
}

func (cl *ContextualLogger) LogResult(resource string, err error, extra ...slog.Attr) {
	cl.logger.LogOperation(cl.ctx, cl.operation, resource, time.Since(cl.startTime), err, extra...)

	var ve ValidationErrors
	if err != nil && errors.As(err, &ve) {
		cl.logger.LogValidationError(cl.ctx, cl.operation, ve)
	}
}
