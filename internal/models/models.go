package models

import "time"

// Item is a canonical product identity. Aggregates are maintained by the
// reconciler only; the HTTP layer never writes them directly.
type Item struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	TotalQuantity int64     `db:"total_quantity" json:"total_quantity"`
	TotalSpent    int64     `db:"total_spent" json:"total_spent"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`

	History []HistoryEntry `db:"-" json:"history,omitempty"`
}

// HistoryEntry records one line-item attribution against an Item.
type HistoryEntry struct {
	ID           int64     `db:"id" json:"id"`
	ItemID       int64     `db:"item_id" json:"-"`
	Date         time.Time `db:"date" json:"date"`
	Store        string    `db:"store" json:"store"`
	PricePerUnit int64     `db:"price_per_unit" json:"price_per_unit"`
	Quantity     int       `db:"quantity" json:"quantity"`
	Total        int64     `db:"total" json:"total"`
}

// Purchase is one commercial transaction with embedded line items.
type Purchase struct {
	ID          int64     `db:"id" json:"id"`
	Date        time.Time `db:"date" json:"date"`
	Store       string    `db:"store" json:"store"`
	AdminFee    int64     `db:"admin_fee" json:"admin_fee"`
	ShippingFee int64     `db:"shipping_fee" json:"shipping_fee"`
	Total       int64     `db:"total" json:"total"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Items []PurchaseItem `db:"-" json:"items"`
}

// PurchaseItem is a line item embedded in a purchase. ItemID is nil until
// resolution has attached the line to a canonical item.
type PurchaseItem struct {
	ID         int64  `db:"id" json:"-"`
	PurchaseID int64  `db:"purchase_id" json:"-"`
	Position   int    `db:"position" json:"-"`
	ItemID     *int64 `db:"item_id" json:"item_id,omitempty"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
	Quantity   int    `db:"quantity" json:"quantity"`
	Total      int64  `db:"total" json:"total"`
}

// JobStatus is the matching-job state machine. Transitions are monotonic:
// pending -> processing -> done|error. There is no automatic retry; a
// re-enqueue (purchase edit) replaces the job with a fresh pending one.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusError      JobStatus = "error"
)

// MatchingJob tracks reconciliation progress for one purchase. Keyed by
// purchase id: an edit supersedes the old job instead of adding a second.
type MatchingJob struct {
	PurchaseID int64     `db:"purchase_id" json:"purchase_id"`
	TotalItems int       `db:"total_items" json:"total_items"`
	Processed  int       `db:"processed" json:"processed"`
	Status     JobStatus `db:"status" json:"status"`
	EnqueuedAt time.Time `db:"enqueued_at" json:"enqueued_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Sale is a revenue record. Sales never touch the item ledger.
type Sale struct {
	ID        int64     `db:"id" json:"id"`
	Date      time.Time `db:"date" json:"date"`
	Amount    int64     `db:"amount" json:"amount"`
	Channel   string    `db:"channel" json:"channel"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
