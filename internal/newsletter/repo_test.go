package newsletter

import (
	"context"
	"testing"

	"github.com/angelmondragon/cakeshop-backend/internal/testdb"
	"github.com/angelmondragon/cakeshop-backend/pkg/db"
	"github.com/angelmondragon/cakeshop-backend/pkg/db/models"
	"github.com/angelmondragon/cakeshop-backend/pkg/notify"
	"github.com/stretchr/testify/require"
)

func TestSubscribePersistsOnce(t *testing.T) {
	client := testdb.Open(t)
	repository := NewRepository(client.DB())
	svc, err := NewService(ServiceParams{Repo: repository, Sink: notify.NewLogSink(nil)})
	require.NoError(t, err)

	ctx := context.Background()
	res, err := svc.Subscribe(ctx, "Baker@Example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeSubscribed, res.Outcome)

	res, err = svc.Subscribe(ctx, "baker@example.com")
	require.NoError(t, err)
	require.Equal(t, OutcomeAlreadySubscribed, res.Outcome)

	var count int64
	require.NoError(t, client.DB().Table("newsletter_subscribers").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestRepositoryCreateDuplicateIsUniqueViolation(t *testing.T) {
	client := testdb.Open(t)
	repository := NewRepository(client.DB())
	ctx := context.Background()

	require.NoError(t, repository.Create(ctx, &models.NewsletterSubscriber{Email: "fan@example.com"}))
	err := repository.Create(ctx, &models.NewsletterSubscriber{Email: "fan@example.com"})
	require.Error(t, err)
	require.True(t, db.IsUniqueViolation(err, emailIndex))

	exists, err := repository.ExistsByEmail(ctx, "fan@example.com")
	require.NoError(t, err)
	require.True(t, exists)
}
