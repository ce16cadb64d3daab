package pubsub

import (
	"context"
	"fmt"
	"strings"
	"sync"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const topicPathPrefix = "projects/"

// TopicResourceName turns a short topic id into projects/<p>/topics/<id>.
// Already-qualified names pass through; "" means it cannot be resolved.
func TopicResourceName(projectID, name string) string {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return ""
	case strings.HasPrefix(name, topicPathPrefix) && strings.Contains(name, "/topics/"):
		return name
	}
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return ""
	}
	return topicPathPrefix + projectID + "/topics/" + name
}

// publishers lazily opens one batching publisher per topic.
type publishers struct {
	mu     sync.Mutex
	byName map[string]*pubsub.Publisher
}

func (p *publishers) get(client *pubsub.Client, fullName string) *pubsub.Publisher {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pub, ok := p.byName[fullName]; ok {
		return pub
	}
	if p.byName == nil {
		p.byName = make(map[string]*pubsub.Publisher)
	}
	pub := client.Publisher(fullName)
	p.byName[fullName] = pub
	return pub
}

// stopAll flushes outstanding batches.
func (p *publishers) stopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for name, pub := range p.byName {
		pub.Stop()
		delete(p.byName, name)
	}
}

func checkTopic(ctx context.Context, client *pubsub.Client, fullName string) error {
	_, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: fullName})
	switch {
	case err == nil:
		return nil
	case status.Code(err) == codes.NotFound:
		return fmt.Errorf("topic %q does not exist", fullName)
	default:
		return fmt.Errorf("checking topic %q: %w", fullName, err)
	}
}
