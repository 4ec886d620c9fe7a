package models

import "time"

// Event types
const (
	EventTypePurchaseCreated   = "PURCHASE_CREATED"
	EventTypePurchaseUpdated   = "PURCHASE_UPDATED"
	EventTypePurchaseDeleted   = "PURCHASE_DELETED"
	EventTypeMatchingCompleted = "MATCHING_COMPLETED"
	EventTypeMatchingFailed    = "MATCHING_FAILED"
	EventTypeResyncCompleted   = "RESYNC_COMPLETED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// PurchaseCreatedEvent published when a purchase is recorded
type PurchaseCreatedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	Store      string `json:"store"`
	Total      int64  `json:"total"`
	ItemCount  int    `json:"item_count"`
}

// PurchaseUpdatedEvent published when a purchase is edited and its
// matching job has been re-enqueued
type PurchaseUpdatedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	Store      string `json:"store"`
	Total      int64  `json:"total"`
	ItemCount  int    `json:"item_count"`
}

// PurchaseDeletedEvent published after a purchase and its ledger
// contribution have been removed
type PurchaseDeletedEvent struct {
	BaseEvent
	PurchaseID int64 `json:"purchase_id"`
}

// MatchingCompletedEvent published when a job reaches the done state
type MatchingCompletedEvent struct {
	BaseEvent
	PurchaseID int64 `json:"purchase_id"`
	Processed  int   `json:"processed"`
}

// MatchingFailedEvent published when a job reaches the error state
type MatchingFailedEvent struct {
	BaseEvent
	PurchaseID int64  `json:"purchase_id"`
	Processed  int    `json:"processed"`
	Reason     string `json:"reason"`
}

// ResyncCompletedEvent published when a full ledger rebuild finishes
type ResyncCompletedEvent struct {
	BaseEvent
	Purchases    int `json:"purchases"`
	LineItems    int `json:"line_items"`
	ItemsCreated int `json:"items_created"`
}
