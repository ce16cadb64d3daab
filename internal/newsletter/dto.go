package newsletter

import (
	"time"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/google/uuid"
)

// Outcome describes how a subscribe call resolved.
type Outcome string

const (
	OutcomeSubscribed                   Outcome = "subscribed"
	OutcomeAlreadySubscribed            Outcome = "already_subscribed"
	OutcomeSubscribedNotificationFailed Outcome = "subscribed_notification_failed"
)

// SubscribeRequest is the POST /subscribe body. The service normalizes and
// validates the address.
type SubscribeRequest struct {
	Email string `json:"email"`
}

type SubscriberDTO struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribed_at"`
}

// SubscribeResult carries the outcome plus the stored row when one was created.
type SubscribeResult struct {
	Outcome    Outcome
	Subscriber *SubscriberDTO
	Warning    string
}

func newSubscriberDTO(m *models.NewsletterSubscriber) *SubscriberDTO {
	if m == nil {
		return nil
	}
	return &SubscriberDTO{ID: m.ID, Email: m.Email, SubscribedAt: m.SubscribedAt}
}
