package models

import "time"

// RecoveryStatus is the state of a RecoveryRequest. Only RecoveryPending
// accepts transitions; every other status is terminal.
type RecoveryStatus string

const (
	RecoveryPending   RecoveryStatus = "pending"
	RecoveryCompleted RecoveryStatus = "completed"
	RecoveryExpired   RecoveryStatus = "expired"
	RecoveryCancelled RecoveryStatus = "cancelled"
)

func (s RecoveryStatus) Terminal() bool {
	return s != RecoveryPending
}

// RecoveryRequest is one password-reset window, looked up by Token.
type RecoveryRequest struct {
	ID             string
	UserID         string
	Token          string
	DateRequested  time.Time
	DateExpiration time.Time
	IPAddress      string
	Status         RecoveryStatus
}

func (r *RecoveryRequest) Expired(now time.Time) bool {
	return now.After(r.DateExpiration)
}
