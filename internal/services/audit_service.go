package services

import (
	"context"
	"encoding/json"

	"gorm.io/gorm"

	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// Audit actions.
const (
	AuditActionRegister                   = "REGISTER"
	AuditActionLogin                      = "LOGIN"
	AuditActionCreateUser                 = "CREATE_USER"
	AuditActionChangeRole                 = "CHANGE_ROLE"
	AuditActionChangePassword             = "CHANGE_PASSWORD"
	AuditActionDeleteUser                 = "DELETE_USER"
	AuditActionDeleteCategory             = "DELETE_CATEGORY"
	AuditActionDeleteTransaction          = "DELETE_TRANSACTION"
	AuditActionDeleteRecurringTransaction = "DELETE_RECURRING_TRANSACTION"
	AuditActionDeleteBudget               = "DELETE_BUDGET"
)

// AuditEntry describes one sensitive action. Changes is stored as JSON.
type AuditEntry struct {
	ActorID      string
	Action       string
	ResourceType string
	ResourceID   string
	IPAddress    string
	Changes      map[string]any
}

type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and swallowed; the action
// being audited has already happened.
func (s *auditService) Log(ctx context.Context, entry AuditEntry) {
	row := &models.AuditLog{
		ActorID:      entry.ActorID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		IPAddress:    entry.IPAddress,
	}
	if entry.Changes != nil {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			logger.Get().Errorw("failed to marshal audit log changes", "error", err, "action", entry.Action)
			data = []byte("{}")
		}
		row.Changes = string(data)
	}

	// The request may already be cancelled by the time the entry is written.
	if err := s.db.WithContext(context.WithoutCancel(ctx)).Create(row).Error; err != nil {
		logger.Get().Errorw("failed to create audit log entry",
			"error", err,
			"actor_id", entry.ActorID,
			"action", entry.Action,
			"resource_type", entry.ResourceType,
			"resource_id", entry.ResourceID,
		)
	}
}
