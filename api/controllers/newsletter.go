package controllers

import (
	"net/http"

	"github.com/angelmondragon/cakeshop-backend/api/responses"
	"github.com/angelmondragon/cakeshop-backend/api/validators"
	"github.com/angelmondragon/cakeshop-backend/internal/newsletter"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

const (
	subscribedMessage        = "Successfully subscribed & confirmation email sent!"
	alreadySubscribedMessage = "Already subscribed!"
	emailFailedPrefix        = "Subscribed, but email failed to send: "
)

type subscribeResponse struct {
	Message string                    `json:"message"`
	Data    *newsletter.SubscriberDTO `json:"data,omitempty"`
	Warning string                    `json:"warning,omitempty"`
}

// NewsletterSubscribe records the address and reports how the confirmation went.
func NewsletterSubscribe(svc newsletter.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "newsletter service unavailable"))
			return
		}

		var body newsletter.SubscribeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Subscribe(r.Context(), body.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		switch result.Outcome {
		case newsletter.OutcomeAlreadySubscribed:
			responses.WriteSuccess(w, subscribeResponse{Message: alreadySubscribedMessage})
		case newsletter.OutcomeSubscribedNotificationFailed:
			responses.WriteSuccessStatus(w, http.StatusCreated, subscribeResponse{
				Message: emailFailedPrefix + result.Warning,
				Data:    result.Subscriber,
				Warning: result.Warning,
			})
		default:
			responses.WriteSuccessStatus(w, http.StatusCreated, subscribeResponse{
				Message: subscribedMessage,
				Data:    result.Subscriber,
			})
		}
	}
}
