package models

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeStatusDraft    DisputeStatus = "draft"
	DisputeStatusSent     DisputeStatus = "sent"
	DisputeStatusResolved DisputeStatus = "resolved"
)

var disputeStatusRank = map[DisputeStatus]int{
	DisputeStatusDraft:    0,
	DisputeStatusSent:     1,
	DisputeStatusResolved: 2,
}

// ValidDisputeStatus reports whether s is a known status.
func ValidDisputeStatus(s DisputeStatus) bool {
	_, ok := disputeStatusRank[s]
	return ok
}

// CanTransition allows only forward moves: draft -> sent -> resolved, or draft -> resolved.
func (s DisputeStatus) CanTransition(next DisputeStatus) bool {
	from, ok := disputeStatusRank[s]
	if !ok {
		return false
	}
	to, ok := disputeStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

type Dispute struct {
	ID            uuid.UUID     `db:"id"`
	DocumentID    uuid.UUID     `db:"document_id"`
	Reason        string        `db:"reason"`
	Details       string        `db:"details"`
	LetterContent string        `db:"letter_content"`
	Status        DisputeStatus `db:"status"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}
