package newsletter

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cakeshop-backend/pkg/errors"
	"github.com/angelmondragon/cakeshop-backend/pkg/notify"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	emails    map[string]bool
	createErr error
	creates   int
}

func newStubStore() *stubStore {
	return &stubStore{emails: map[string]bool{}}
}

func (s *stubStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.emails[email], nil
}

func (s *stubStore) Create(ctx context.Context, subscriber *models.NewsletterSubscriber) error {
	s.creates++
	if s.createErr != nil {
		return s.createErr
	}
	s.emails[subscriber.Email] = true
	return nil
}

type recordingSink struct {
	sent []notify.Message
	err  error
}

func (r *recordingSink) Send(ctx context.Context, msg notify.Message) error {
	r.sent = append(r.sent, msg)
	return r.err
}

type recordingObserver struct {
	outcomes []string
}

func (r *recordingObserver) ObserveSubscribe(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func newTestService(t *testing.T, store *stubStore, sink *recordingSink, obs *recordingObserver) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Repo: store, Sink: sink, Observer: obs})
	require.NoError(t, err)
	return svc
}

func TestSubscribeIsIdempotent(t *testing.T) {
	store := newStubStore()
	sink := &recordingSink{}
	obs := &recordingObserver{}
	svc := newTestService(t, store, sink, obs)

	first, err := svc.Subscribe(context.Background(), "  Fan@Example.com ")
	require.NoError(t, err)
	require.Equal(t, OutcomeSubscribed, first.Outcome)
	require.NotNil(t, first.Subscriber)
	require.Equal(t, "fan@example.com", first.Subscriber.Email)

	second, err := svc.Subscribe(context.Background(), "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadySubscribed, second.Outcome)
	require.Nil(t, second.Subscriber)

	require.Equal(t, 1, store.creates)
	require.Len(t, sink.sent, 1)
	require.Equal(t, "fan@example.com", sink.sent[0].To)
	require.Equal(t, confirmationSubject, sink.sent[0].Subject)
	require.Equal(t, []string{"subscribed", "already_subscribed"}, obs.outcomes)
}

func TestSubscribeRejectsInvalidEmail(t *testing.T) {
	for _, email := range []string{"", "   ", "not-an-email"} {
		store := newStubStore()
		svc := newTestService(t, store, &recordingSink{}, &recordingObserver{})

		_, err := svc.Subscribe(context.Background(), email)
		require.Error(t, err)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "email %q", email)
		require.Zero(t, store.creates)
	}
}

func TestSubscribeKeepsRowWhenNotificationFails(t *testing.T) {
	store := newStubStore()
	sink := &recordingSink{err: errors.New("smtp unavailable")}
	svc := newTestService(t, store, sink, &recordingObserver{})

	res, err := svc.Subscribe(context.Background(), "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeSubscribedNotificationFailed, res.Outcome)
	require.Contains(t, res.Warning, "smtp unavailable")
	require.True(t, store.emails["fan@example.com"])
}

func TestSubscribeTreatsUniqueRaceAsAlreadySubscribed(t *testing.T) {
	store := newStubStore()
	store.createErr = errors.New("UNIQUE constraint failed: newsletter_subscribers.email")
	sink := &recordingSink{}
	svc := newTestService(t, store, sink, &recordingObserver{})

	res, err := svc.Subscribe(context.Background(), "fan@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadySubscribed, res.Outcome)
	require.Empty(t, sink.sent)
}

func TestSubscribeWrapsStoreFailure(t *testing.T) {
	store := newStubStore()
	store.createErr = errors.New("connection reset")
	svc := newTestService(t, store, &recordingSink{}, nil)

	_, err := svc.Subscribe(context.Background(), "fan@example.com")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInternal))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{Sink: &recordingSink{}})
	require.Error(t, err)
	_, err = NewService(ServiceParams{Repo: newStubStore()})
	require.Error(t, err)
}
