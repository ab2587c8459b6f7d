package models

// AuditAction is the verb recorded in the audit log
type AuditAction string

const (
	ActionCreate       AuditAction = "create"
	ActionUpdate       AuditAction = "update"
	ActionDelete       AuditAction = "delete"
	ActionRestore      AuditAction = "restore"
	ActionPurge        AuditAction = "purge"
	ActionPurgeAll     AuditAction = "purge_all"
	ActionRenameTag    AuditAction = "rename_tag"
	ActionMergeTags    AuditAction = "merge_tags"
	ActionLoginSuccess AuditAction = "login_success"
	ActionLoginFailed  AuditAction = "login_failed"
	ActionLogout       AuditAction = "logout"
)

// TargetType is the kind of object an audit entry refers to
type TargetType string

const (
	TargetArticle TargetType = "article"
	TargetMedia   TargetType = "media"
	TargetAdmin   TargetType = "admin"
	TargetAPIKey  TargetType = "api_key"
	TargetMeta    TargetType = "meta"
	TargetAudit   TargetType = "audit"
)

// AuditLogEntry is one append-only record of an administrative action
type AuditLogEntry struct {
	ID         int64       `json:"id"`
	Actor      string      `json:"actor"`
	Action     AuditAction `json:"action"`
	TargetType TargetType  `json:"target_type"`
	TargetID   *int64      `json:"target_id,omitempty"`
	Details    string      `json:"details"`
	CreatedAt  int64       `json:"created_at"`
}

// AuditFilter narrows an audit listing
type AuditFilter struct {
	Actor      string
	Action     AuditAction
	TargetType TargetType
}

// SystemActor is recorded when no administrator is behind a mutation
const SystemActor = "system"
