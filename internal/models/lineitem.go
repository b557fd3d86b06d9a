package models

import "time"

// LineItemType selects the handler that fulfills a line item.
type LineItemType string

const (
	LineItemTypeEntitlement LineItemType = "entitlement"
	LineItemTypeProduct     LineItemType = "product"
	LineItemTypeEvent       LineItemType = "event"
	LineItemTypePromotion   LineItemType = "promotion"
)

// LineItemStatus represents the lifecycle state of a line item.
type LineItemStatus string

const (
	LineItemStatusPending    LineItemStatus = "pending"
	LineItemStatusProcessing LineItemStatus = "processing"
	LineItemStatusCompleted  LineItemStatus = "completed"
	LineItemStatusFailed     LineItemStatus = "failed"
	LineItemStatusCancelled  LineItemStatus = "cancelled"
)

// Metadata keys used by the entitlement handler.
const (
	MetadataKeyApplicationRef = "application_ref"
	MetadataKeyMembershipRef  = "membership_ref"
	MetadataKeyError          = "error"
)

// Metadata is the opaque, type-specific key/value bag carried by a line item.
type Metadata map[string]string

// LineItem is one purchased unit within an order. Line items are created
// once at order-creation time and mutated only by the line-item processor.
type LineItem struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	Type        LineItemType   `json:"type"`
	ProductID   string         `json:"product_id"`
	Amount      int64          `json:"amount"`
	Currency    string         `json:"currency"`
	Status      LineItemStatus `json:"status"`
	Metadata    Metadata       `json:"metadata"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	FailedAt    *time.Time     `json:"failed_at,omitempty"`
	CancelledAt *time.Time     `json:"cancelled_at,omitempty"`
}

// IsTerminal reports whether the line item has reached a final state.
func (li *LineItem) IsTerminal() bool {
	switch li.Status {
	case LineItemStatusCompleted, LineItemStatusFailed, LineItemStatusCancelled:
		return true
	}
	return false
}

// ApplicationRef returns the membership application reference, if set.
func (li *LineItem) ApplicationRef() string {
	if li.Metadata == nil {
		return ""
	}
	return li.Metadata[MetadataKeyApplicationRef]
}

// MembershipRef returns the buyer-membership reference, if set.
func (li *LineItem) MembershipRef() string {
	if li.Metadata == nil {
		return ""
	}
	return li.Metadata[MetadataKeyMembershipRef]
}
