// Package events wires catalogue change notifications to the indexing
// pipeline. Topics carry a minimal id payload; consumers re-read the
// catalogue, so replays and reordering converge on current state.
package events

import (
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// Catalogue change topics.
const (
	TopicPerfumeCreated = "perfume.created"
	TopicPerfumeUpdated = "perfume.updated"
	TopicPerfumeDeleted = "perfume.deleted"

	// PoisonTopic receives messages that exhausted their retries.
	PoisonTopic = "perfume.poison"
)

// Payload is the wire body of every perfume topic.
type Payload struct {
	ID string `json:"id"`
}

// NewMessage builds a watermill message for a perfume id.
func NewMessage(perfumeID string) (*message.Message, error) {
	body, err := json.Marshal(Payload{ID: perfumeID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return message.NewMessage(uuid.NewString(), body), nil
}

// ParsePayload decodes a message body; an empty id is invalid.
func ParsePayload(msg *message.Message) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.ID == "" {
		return Payload{}, fmt.Errorf("payload has no id")
	}
	return p, nil
}
