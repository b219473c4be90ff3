package realtime

import "encoding/json"

// Topic names the event streams carried over the realtime channel.
type Topic string

const (
	TopicMessage         Topic = "message"
	TopicMessageUpdated  Topic = "message:updated"
	TopicOrderUpdated    Topic = "order:updated"
	TopicShipmentUpdated Topic = "shipment:updated"
	TopicNotification    Topic = "notification"
)

var subscribedTopics = []Topic{
	TopicMessage,
	TopicMessageUpdated,
	TopicOrderUpdated,
	TopicShipmentUpdated,
	TopicNotification,
}

// IsValid checks whether the topic matches the canonical set.
func (t Topic) IsValid() bool {
	for _, candidate := range subscribedTopics {
		if candidate == t {
			return true
		}
	}
	return false
}

// Event is one frame received from or written to the realtime socket. Data
// stays raw until the dispatcher decodes it per topic.
type Event struct {
	Topic Topic           `json:"topic"`
	Data  json.RawMessage `json:"data"`
}

// subscribeFrame is the first frame sent after connecting; it registers the
// session for the topics above.
type subscribeFrame struct {
	Action string  `json:"action"`
	Topics []Topic `json:"topics"`
}

func newSubscribeFrame() subscribeFrame {
	return subscribeFrame{Action: "subscribe", Topics: subscribedTopics}
}
