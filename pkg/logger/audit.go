package logger

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	Username      string
	Actor         string
	IPAddress     string
	Success       bool
	FailureReason string
	Metadata      map[string]string
}

// AuditLogger writes audit records for logins and account changes
type AuditLogger struct {
	logger *slog.Logger
}

func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// LogAuthAttempt logs authentication attempts
func (al *AuditLogger) LogAuthAttempt(event AuditEvent) {
	al.log("auth", event)
}

// LogPasswordChange logs a password set by an administrator
func (al *AuditLogger) LogPasswordChange(username, actor string, success bool) {
	al.log("password", AuditEvent{
		EventType: "password_change",
		Username:  username,
		Actor:     actor,
		Success:   success,
	})
}

// LogAccountAction logs changes to an account such as removal or virtual
// cluster assignment.
func (al *AuditLogger) LogAccountAction(eventType, username, actor string, metadata map[string]string) {
	al.log("account", AuditEvent{
		EventType: eventType,
		Username:  username,
		Actor:     actor,
		Success:   true,
		Metadata:  metadata,
	})
}

func (al *AuditLogger) log(auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", event.Username))
	}
	if event.Actor != "" {
		attrs = append(attrs, slog.String("actor", event.Actor))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}
	for key, val := range event.Metadata {
		attrs = append(attrs, slog.String(strings.ToLower(key), val))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(context.Background(), level, "audit", attrs...)
}
