package bridge

// Topic suffixes derived from the base topic.
const (
	configSuffix  = "config"
	stateSuffix   = "state"
	commandSuffix = "command"
)

// TopicSet holds the three topics the bridge ever touches. Nothing else is
// published to or subscribed from.
type TopicSet struct {
	// Config carries the retained discovery payload (Home Assistant
	// MQTT discovery).
	Config string

	// State carries "LOCKED"/"UNLOCKED" updates.
	State string

	// Command receives "LOCK"/"UNLOCK" commands.
	Command string
}

// DeriveTopics derives the config, state and command topics from a base
// topic. The caller guarantees base is non-empty (config validation).
func DeriveTopics(base string) TopicSet {
	return TopicSet{
		Config:  base + "/" + configSuffix,
		State:   base + "/" + stateSuffix,
		Command: base + "/" + commandSuffix,
	}
}
