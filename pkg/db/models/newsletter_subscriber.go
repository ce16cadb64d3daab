package models

import (
	"time"

	"github.com/google/uuid"
)

type NewsletterSubscriber struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	SubscribedAt time.Time `gorm:"column:subscribed_at;autoCreateTime"`
}
