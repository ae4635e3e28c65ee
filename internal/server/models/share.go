package models

import "time"

// Share states. Shares are never deleted, only transitioned, so the table
// doubles as the audit trail.
const (
	ShareStatusPending  = "pending"
	ShareStatusAccepted = "accepted"
	ShareStatusDeclined = "declined"
	ShareStatusRevoked  = "revoked"
)

// Permission tiers.
const (
	PermissionView     = "view"
	PermissionDownload = "download"
)

// FileShare offers one file to one recipient. WrappedFileKey is the file
// key sealed under the X3DH secret derived for this recipient, so revoking
// one share never touches another recipient's access.
type FileShare struct {
	ID          string
	FileID      string
	OwnerID     string
	RecipientID string

	// WrappedFileKey and the initiator's handshake parameters the
	// recipient needs to unwrap it.
	WrappedFileKey  []byte
	EphemeralPublic string
	OPKIndex        *int // nil when the bundle was exhausted (degraded)

	Permission  string
	Status      string
	CreatedAt   time.Time
	RespondedAt *time.Time
}

// ValidTransition reports whether the share state machine allows
// from → to. pending splits into accepted/declined; accepted may be
// revoked; declined and revoked are terminal.
func ValidTransition(from, to string) bool {
	switch from {
	case ShareStatusPending:
		return to == ShareStatusAccepted || to == ShareStatusDeclined
	case ShareStatusAccepted:
		return to == ShareStatusRevoked
	default:
		return false
	}
}
