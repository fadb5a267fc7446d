package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the curation state of a question.
type Status string

const (
	// StatusSubmitted is the initial state of every question.
	StatusSubmitted Status = "submitted"
	// StatusApproved means the question is visible on public displays and votable.
	StatusApproved Status = "approved"
	// StatusLive means the question is currently being answered. At most one
	// question holds this status at any time.
	StatusLive Status = "live"
	// StatusNextUp means the question is queued to go live next. At most one
	// question holds this status at any time.
	StatusNextUp Status = "next_up"
)

// SortKey selects the ordering of a question list snapshot.
type SortKey string

const (
	// SortRecency orders by creation time, newest first. Default.
	SortRecency SortKey = "recency"
	// SortVotes orders by upvote count, highest first.
	SortVotes SortKey = "votes"
	// SortApprovedFirst puts approved questions before all others, then recency.
	SortApprovedFirst SortKey = "approved"
)

// ParseSortKey maps a client-supplied sort string to a SortKey, defaulting to recency.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortVotes:
		return SortVotes
	case SortApprovedFirst:
		return SortApprovedFirst
	default:
		return SortRecency
	}
}

// Question is an audience question in the active workflow.
type Question struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Text          string    `json:"text"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Status        Status    `json:"status"`
	Upvotes       int       `json:"upvotes"`
	CreatedAt     time.Time `json:"created_at"`
}

// ArchivedQuestion is a question removed from the active workflow but retained
// for later retrieval. It reuses the question's id and keeps its upvote count.
type ArchivedQuestion struct {
	ID            uuid.UUID `json:"id"`
	Username      string    `json:"username"`
	Text          string    `json:"text"`
	ParticipantID string    `json:"participant_id,omitempty"`
	Status        Status    `json:"status"`
	Upvotes       int       `json:"upvotes"`
	ArchivedAt    time.Time `json:"archived_at"`
}
