package mqtt

import "time"

// Client publishes plan notifications to a broker.
type Client interface {
	// Publish sends payload to topic, retrying transient failures.
	Publish(topic string, payload []byte, retained bool) error
}

// AckTracker is implemented by clients that listen for receipts from
// downstream consumers. Track must be called before the message is sent.
type AckTracker interface {
	Track(messageID string)
	WaitForAck(messageID string, timeout time.Duration) (bool, error)
}
