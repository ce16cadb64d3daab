package pubsub

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"google.golang.org/api/option"

	"github.com/angelmondragon/cakeshop-backend/pkg/config"
	"github.com/angelmondragon/cakeshop-backend/pkg/logger"
)

var (
	errProjectIDRequired = errors.New("gcp project id is required")
	errNotInitialized    = errors.New("pubsub client not initialized")
)

// Client publishes newsletter notification events.
type Client struct {
	client    *pubsub.Client
	projectID string
	topic     string
	pubs      publishers
}

// NewClient dials Pub/Sub and fails fast when the newsletter topic is missing.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}
	topic := TopicResourceName(projectID, cfg.NewsletterTopic)
	if topic == "" {
		return nil, errors.New("pubsub newsletter topic is required")
	}

	raw, err := pubsub.NewClient(ctx, projectID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	if err := checkTopic(ctx, raw, topic); err != nil {
		_ = raw.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "topic", topic), "pubsub client initialized")
	}
	return &Client{client: raw, projectID: projectID, topic: topic}, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	creds := strings.TrimSpace(gcp.CredentialsJSON)
	if creds == "" {
		return nil
	}
	return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
}

// NewsletterTopic is the fully qualified topic newsletter events go to.
func (c *Client) NewsletterTopic() string {
	return c.topic
}

// Publish blocks until the server acknowledges the message and returns its id.
func (c *Client) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	if c == nil || c.client == nil {
		return "", errNotInitialized
	}
	fullName := TopicResourceName(c.projectID, topic)
	if fullName == "" {
		return "", fmt.Errorf("publisher for topic %q unavailable", topic)
	}

	id, err := c.pubs.get(c.client, fullName).Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs}).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", topic, err)
	}
	return id, nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errNotInitialized
	}
	return checkTopic(ctx, c.client, c.topic)
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	c.pubs.stopAll()
	return c.client.Close()
}
