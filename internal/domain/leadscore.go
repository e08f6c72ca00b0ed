package domain

import (
	"time"

	"github.com/google/uuid"
)

// LeadEventType is a behavioral event that moves a user's lead score
type LeadEventType string

const (
	LeadEventRegister             LeadEventType = "register"
	LeadEventLogin                LeadEventType = "login"
	LeadEventViewProduct          LeadEventType = "view_product"
	LeadEventAddToCart            LeadEventType = "add_to_cart"
	LeadEventAddToWishlist        LeadEventType = "add_to_wishlist"
	LeadEventPlaceOrder           LeadEventType = "place_order"
	LeadEventAbandonedCart        LeadEventType = "abandoned_cart"
	LeadEventNoPurchaseAfterViews LeadEventType = "no_purchase_after_views"
)

var leadEventDeltas = map[LeadEventType]int{
	LeadEventLogin:                2,
	LeadEventViewProduct:          3,
	LeadEventAddToCart:            5,
	LeadEventAddToWishlist:        3,
	LeadEventPlaceOrder:           10,
	LeadEventAbandonedCart:        -5,
	LeadEventNoPurchaseAfterViews: -5,
}

// Known reports whether the event type has a score delta
func (e LeadEventType) Known() bool {
	if e == LeadEventRegister {
		return true
	}
	_, ok := leadEventDeltas[e]
	return ok
}

// NeedsSource reports whether the delta depends on the user's acquisition source
func (e LeadEventType) NeedsSource() bool {
	return e == LeadEventRegister
}

// ScoreDelta returns the score change for the event; ok is false for unknown types.
func ScoreDelta(event LeadEventType, source Source) (delta int, ok bool) {
	if event == LeadEventRegister {
		if source == SourceReferral {
			return 10, true
		}
		return 5, true
	}
	delta, ok = leadEventDeltas[event]
	return delta, ok
}

// LeadEvent is the message handed from a triggering flow to the lead scorer
type LeadEvent struct {
	UserID     uuid.UUID     `json:"user_id"`
	Type       LeadEventType `json:"type"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewLeadEvent stamps an event with the current time
func NewLeadEvent(userID uuid.UUID, eventType LeadEventType) LeadEvent {
	return LeadEvent{
		UserID:     userID,
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
	}
}
