package bridge

import (
	"encoding/json"
	"fmt"
)

// DiscoveryPayload is the descriptor published retained to the config topic
// at startup (and re-published on reconnect). Home Assistant uses it to
// create the lock entity pointing at the command and state topics.
type DiscoveryPayload struct {
	CommandTopic string `json:"command_topic"`
	StateTopic   string `json:"state_topic"`
	Name         string `json:"name"`
}

// NewDiscoveryPayload builds the payload for a topic set and display name.
func NewDiscoveryPayload(topics TopicSet, name string) DiscoveryPayload {
	return DiscoveryPayload{
		CommandTopic: topics.Command,
		StateTopic:   topics.State,
		Name:         name,
	}
}

// Marshal serialises the payload as a flat JSON object.
func (p DiscoveryPayload) Marshal() ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshalling discovery payload: %w", err)
	}
	return data, nil
}
