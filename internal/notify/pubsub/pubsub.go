// Package pubsub publishes region-completion events to Google Cloud
// Pub/Sub. The topic must already exist; creation is an operational
// concern, not the pipeline's.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	gpubsub "cloud.google.com/go/pubsub"

	"github.com/hoplog/brewharvest/internal/notify"
)

// Publisher sends events to a single Pub/Sub topic.
type Publisher struct {
	client *gpubsub.Client
	topic  *gpubsub.Topic
}

// New connects to the project and verifies the topic exists before the
// first region runs, so a misconfigured topic fails fast.
func New(ctx context.Context, projectID, topicID string) (*Publisher, error) {
	if projectID == "" || topicID == "" {
		return nil, fmt.Errorf("pubsub publisher requires a project id and topic id")
	}
	client, err := gpubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	topic := client.Topic(topicID)
	ok, err := topic.Exists(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("check pubsub topic %s: %w", topicID, err)
	}
	if !ok {
		client.Close()
		return nil, fmt.Errorf("pubsub topic %s does not exist in project %s", topicID, projectID)
	}
	return &Publisher{client: client, topic: topic}, nil
}

// Publish marshals the event and waits for the server ack.
func (p *Publisher) Publish(ctx context.Context, done notify.RegionDone) error {
	data, err := json.Marshal(done)
	if err != nil {
		return fmt.Errorf("marshal region event: %w", err)
	}
	res := p.topic.Publish(ctx, &gpubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"run_id": done.RunID,
			"region": done.Region,
		},
	})
	if _, err := res.Get(ctx); err != nil {
		return fmt.Errorf("publish region event for %s: %w", done.Region, err)
	}
	return nil
}

// Close flushes pending messages and releases the client.
func (p *Publisher) Close() error {
	p.topic.Stop()
	return p.client.Close()
}
