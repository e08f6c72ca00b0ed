package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Pesokrava/storefront/internal/pkg/logger"
)

// notification is the subset of order and review events the notifier renders
type notification struct {
	EventType   string `json:"event_type"`
	OrderNumber string `json:"order_number"`
	UserID      string `json:"user_id"`
	Status      string `json:"status"`
	GrandTotal  string `json:"grand_total"`
	ProductID   string `json:"product_id"`
	Review      *struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
		Rating int    `json:"rating"`
		Status string `json:"status"`
	} `json:"review"`
}

// Describe renders an event as the message a customer or moderator would receive
func Describe(data []byte) (string, error) {
	var n notification
	if err := json.Unmarshal(data, &n); err != nil {
		return "", fmt.Errorf("failed to unmarshal event: %w", err)
	}

	switch n.EventType {
	case "order.created":
		return fmt.Sprintf("Order %s placed by %s, total %s", n.OrderNumber, n.UserID, n.GrandTotal), nil
	case "order.paid":
		return fmt.Sprintf("Payment received for order %s", n.OrderNumber), nil
	case "order.cancelled":
		return fmt.Sprintf("Order %s was cancelled", n.OrderNumber), nil
	case "order.status_changed":
		return fmt.Sprintf("Order %s is now %s", n.OrderNumber, n.Status), nil
	}

	if n.Review != nil {
		switch n.EventType {
		case "review.created":
			return fmt.Sprintf("New %d-star review %s on product %s (%s)", n.Review.Rating, n.Review.ID, n.ProductID, n.Review.Status), nil
		case "review.moderated":
			return fmt.Sprintf("Review %s by %s was %s", n.Review.ID, n.Review.UserID, n.Review.Status), nil
		case "review.updated", "review.deleted":
			return fmt.Sprintf("Review %s on product %s: %s", n.Review.ID, n.ProductID, n.EventType), nil
		}
	}

	return "", fmt.Errorf("unsupported event type %q", n.EventType)
}

// NotificationHandler logs a rendered notification for every event.
// Unsupported events are acknowledged and skipped.
func NotificationHandler(log *logger.Logger) Handler {
	return func(_ context.Context, data []byte) error {
		message, err := Describe(data)
		if err != nil {
			log.Warnf("Skipping event: %v", err)
			return nil
		}

		log.Infof("Notification: %s", message)
		return nil
	}
}
