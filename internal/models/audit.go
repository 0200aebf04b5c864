package models

import "time"

const (
	AuditActionLogin          = "LOGIN"
	AuditActionLogout         = "LOGOUT"
	AuditActionCreate         = "CREATE"
	AuditActionUpdate         = "UPDATE"
	AuditActionDelete         = "DELETE"
	AuditActionPasswordChange = "PASSWORD_CHANGE"
	AuditActionImport         = "IMPORT"
	AuditActionPublish        = "PUBLISH"
	AuditActionUnpublish      = "UNPUBLISH"
	AuditActionRecalculate    = "RECALCULATE"
	AuditActionExport         = "EXPORT"
)

// Audited resource names.
const (
	AuditResourceUser        = "user"
	AuditResourceClass       = "class"
	AuditResourceSubject     = "subject"
	AuditResourceStudent     = "student"
	AuditResourceResult      = "result"
	AuditResourcePublication = "result_publication"
	AuditResourceNews        = "news"
	AuditResourceGallery     = "gallery"
	AuditResourceSlide       = "slide"
	AuditResourceFacility    = "facility"
	AuditResourceAdmission   = "admission"
)

type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter scopes audit log listings.
type AuditFilter struct {
	Resource string
	UserID   string
	Page     int
	PageSize int
}

// RequestMeta identifies the caller of a mutation for the audit trail.
type RequestMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}
