package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// NotifyConfig picks where newsletter welcome mails go: the log, an SMTP
// relay, or a Pub/Sub topic consumed by a mail worker.
type NotifyConfig struct {
	Driver      string `envconfig:"CAKESHOP_NOTIFY_DRIVER" default:"log"`
	FromAddress string `envconfig:"CAKESHOP_NOTIFY_FROM_EMAIL" default:"no-reply@cakeshop.local"`
}

func (n NotifyConfig) NormalizedDriver() string {
	if driver := strings.ToLower(strings.TrimSpace(n.Driver)); driver != "" {
		return driver
	}
	return NotifyDriverLog
}

func (n NotifyConfig) validate(cfg *Config) error {
	var needed map[string]string
	switch driver := n.NormalizedDriver(); driver {
	case NotifyDriverLog:
		return nil
	case NotifyDriverSMTP:
		needed = map[string]string{EnvSMTPHost: cfg.SMTP.Host}
	case NotifyDriverPubSub:
		needed = map[string]string{
			EnvGCPProjectID:          cfg.GCP.ProjectID,
			EnvPubSubNewsletterTopic: cfg.PubSub.NewsletterTopic,
		}
	default:
		return fmt.Errorf("unsupported %s %q", EnvNotifyDriver, n.Driver)
	}
	for _, env := range []string{EnvSMTPHost, EnvGCPProjectID, EnvPubSubNewsletterTopic} {
		if value, ok := needed[env]; ok && strings.TrimSpace(value) == "" {
			return fmt.Errorf("%s is required when %s=%s", env, EnvNotifyDriver, n.NormalizedDriver())
		}
	}
	return nil
}

type SMTPConfig struct {
	Host     string        `envconfig:"CAKESHOP_SMTP_HOST"`
	Port     int           `envconfig:"CAKESHOP_SMTP_PORT" default:"587"`
	Username string        `envconfig:"CAKESHOP_SMTP_USER"`
	Password string        `envconfig:"CAKESHOP_SMTP_PASSWORD"`
	Timeout  time.Duration `envconfig:"CAKESHOP_SMTP_TIMEOUT" default:"10s"`
}

func (s SMTPConfig) Addr() string {
	return net.JoinHostPort(strings.TrimSpace(s.Host), strconv.Itoa(s.Port))
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CAKESHOP_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CAKESHOP_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NewsletterTopic string `envconfig:"CAKESHOP_PUBSUB_NEWSLETTER_TOPIC" default:"cakeshop-newsletter-events"`
}
