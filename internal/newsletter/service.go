package newsletter

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
	"github.com/angelmondragon/cakeshop-backend/pkg/notify"
	"github.com/go-playground/validator/v10"
)

const (
	confirmationSubject = "Thanks for Subscribing to our cake art!"
	confirmationBody    = "Hi! Thanks for subscribing to our newsletter. You'll receive fresh updates soon."

	emailIndex = "idx_newsletter_subscribers_email"
)

// Service records newsletter subscriptions and sends the confirmation.
type Service interface {
	Subscribe(ctx context.Context, email string) (*SubscribeResult, error)
}

type subscriberStore interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, subscriber *models.NewsletterSubscriber) error
}

type subscribeObserver interface {
	ObserveSubscribe(outcome string)
}

type ServiceParams struct {
	Repo     subscriberStore
	Sink     notify.Sink
	Observer subscribeObserver
	Logger   *logger.Logger
}

type service struct {
	repo     subscriberStore
	sink     notify.Sink
	observer subscribeObserver
	logg     *logger.Logger
	validate *validator.Validate
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("subscriber repository required")
	}
	if params.Sink == nil {
		return nil, fmt.Errorf("notification sink required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:     params.Repo,
		sink:     params.Sink,
		observer: params.Observer,
		logg:     logg,
		validate: validator.New(),
	}, nil
}

// Subscribe is idempotent per normalized address. A failed confirmation
// never undoes the stored subscription.
func (s *service) Subscribe(ctx context.Context, email string) (*SubscribeResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		s.observe("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required").
			WithDetails(map[string]any{"email": "required"})
	}
	if err := s.validate.Var(email, "email,max=254"); err != nil {
		s.observe("rejected")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is invalid").
			WithDetails(map[string]any{"email": "invalid"})
	}

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		s.observe("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup subscriber")
	}
	if exists {
		return s.already(), nil
	}

	subscriber := &models.NewsletterSubscriber{Email: email}
	if err := s.repo.Create(ctx, subscriber); err != nil {
		if db.IsUniqueViolation(err, emailIndex) {
			return s.already(), nil
		}
		s.observe("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create subscriber")
	}

	result := &SubscribeResult{Outcome: OutcomeSubscribed, Subscriber: newSubscriberDTO(subscriber)}
	err = s.sink.Send(ctx, notify.Message{
		Kind:    notify.KindNewsletterConfirmation,
		To:      email,
		Subject: confirmationSubject,
		Body:    confirmationBody,
	})
	if err != nil {
		logCtx := s.logg.WithField(ctx, "subscriber_id", subscriber.ID.String())
		s.logg.Warn(logCtx, fmt.Sprintf("newsletter.confirmation_failed: %v", err))
		result.Outcome = OutcomeSubscribedNotificationFailed
		result.Warning = err.Error()
	}
	s.observe(string(result.Outcome))
	return result, nil
}

func (s *service) already() *SubscribeResult {
	s.observe(string(OutcomeAlreadySubscribed))
	return &SubscribeResult{Outcome: OutcomeAlreadySubscribed}
}

func (s *service) observe(outcome string) {
	if s.observer != nil {
		s.observer.ObserveSubscribe(outcome)
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
