package services

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/pandeptwidyaop/nodered-backups/internal/database"
)

// Audit actions.
const (
	ActionDownload        = "download"
	ActionDelete          = "delete"
	ActionRetentionDelete = "retention_delete"
	ActionLoginSuccess    = "login_success"
	ActionLoginFailed     = "login_failed"
	ActionLogout          = "logout"
)

// AuditService records who touched which backup.
type AuditService struct {
	db *database.DB
}

// NewAuditService creates a new AuditService instance.
func NewAuditService(db *database.DB) *AuditService {
	return &AuditService{db: db}
}

// AuditLog represents an audit log entry to be recorded.
type AuditLog struct {
	Details      map[string]interface{}
	Action       string
	Installation string
	Filename     string
	IPAddress    string
	UserAgent    string
	RequestID    string
}

// Log records an audit log entry. Failures are logged and returned but callers
// are expected to carry on.
func (s *AuditService) Log(entry AuditLog) error {
	var detailsJSON string
	if entry.Details != nil {
		bytes, err := json.Marshal(entry.Details)
		if err == nil {
			detailsJSON = string(bytes)
		}
	}

	_, err := s.db.Exec(`
		INSERT INTO audit_logs (action, installation, filename, ip_address, user_agent, details, request_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Action, entry.Installation, entry.Filename, entry.IPAddress, entry.UserAgent, detailsJSON, entry.RequestID)

	if err != nil {
		log.Error().Err(err).
			Str("action", entry.Action).
			Str("installation", entry.Installation).
			Str("filename", entry.Filename).
			Msg("failed to write audit log")
	}

	return err
}

// LogDownload logs a backup file being served.
func (s *AuditService) LogDownload(installation, filename, ip, userAgent, requestID string) {
	_ = s.Log(AuditLog{
		Action:       ActionDownload,
		Installation: installation,
		Filename:     filename,
		IPAddress:    ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
	})
}

// LogDelete logs a backup file removed through the API.
func (s *AuditService) LogDelete(installation, filename, ip, userAgent, requestID string) {
	_ = s.Log(AuditLog{
		Action:       ActionDelete,
		Installation: installation,
		Filename:     filename,
		IPAddress:    ip,
		UserAgent:    userAgent,
		RequestID:    requestID,
	})
}

// LogRetentionDelete logs a backup file removed by the retention sweep.
func (s *AuditService) LogRetentionDelete(installation, filename string, keepLast int) {
	_ = s.Log(AuditLog{
		Action:       ActionRetentionDelete,
		Installation: installation,
		Filename:     filename,
		Details: map[string]interface{}{
			"keep_last": keepLast,
		},
	})
}

// LogLogin logs a login attempt.
func (s *AuditService) LogLogin(ip, userAgent string, success bool) {
	action := ActionLoginSuccess
	if !success {
		action = ActionLoginFailed
	}
	_ = s.Log(AuditLog{Action: action, IPAddress: ip, UserAgent: userAgent})
}

// LogLogout logs a logout.
func (s *AuditService) LogLogout(ip, userAgent string) {
	_ = s.Log(AuditLog{Action: ActionLogout, IPAddress: ip, UserAgent: userAgent})
}

// AuditLogEntry represents an audit log record from the database.
type AuditLogEntry struct {
	Action       string `json:"action"`
	Installation string `json:"installation"`
	Filename     string `json:"filename"`
	IPAddress    string `json:"ip_address"`
	UserAgent    string `json:"user_agent"`
	Details      string `json:"details"`
	RequestID    string `json:"request_id"`
	CreatedAt    string `json:"created_at"`
	ID           int64  `json:"id"`
}

// GetLogs retrieves audit logs with pagination, newest first.
func (s *AuditService) GetLogs(limit, offset int) ([]AuditLogEntry, error) {
	if limit == 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT id, action, installation, filename, ip_address, user_agent, details, request_id, created_at
		FROM audit_logs
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	// empty slice so the JSON encodes as [] rather than null
	logs := make([]AuditLogEntry, 0)
	for rows.Next() {
		var entry AuditLogEntry
		var installation, filename, ipAddress, userAgent, details, requestID *string

		if err := rows.Scan(
			&entry.ID,
			&entry.Action,
			&installation,
			&filename,
			&ipAddress,
			&userAgent,
			&details,
			&requestID,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}

		entry.Installation = deref(installation)
		entry.Filename = deref(filename)
		entry.IPAddress = deref(ipAddress)
		entry.UserAgent = deref(userAgent)
		entry.Details = deref(details)
		entry.RequestID = deref(requestID)

		logs = append(logs, entry)
	}

	return logs, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
