package events

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
)

// Publisher emits perfume change notifications.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher wraps a watermill publisher.
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// PerfumeCreated announces a newly created perfume.
func (p *Publisher) PerfumeCreated(perfumeID string) error {
	return p.publish(TopicPerfumeCreated, perfumeID)
}

// PerfumeUpdated announces an updated perfume.
func (p *Publisher) PerfumeUpdated(perfumeID string) error {
	return p.publish(TopicPerfumeUpdated, perfumeID)
}

// PerfumeDeleted announces a deleted perfume.
func (p *Publisher) PerfumeDeleted(perfumeID string) error {
	return p.publish(TopicPerfumeDeleted, perfumeID)
}

func (p *Publisher) publish(topic, perfumeID string) error {
	msg, err := NewMessage(perfumeID)
	if err != nil {
		return err
	}
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}
