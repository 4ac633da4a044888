package repository

import "context"

// AuditEntry is a single recorded auth event.
type AuditEntry struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
}

// AuditLogRepository records auth events (register, login, oauth, edit, logout).
type AuditLogRepository interface {
	Insert(ctx context.Context, e AuditEntry) error
}
