// Package eventbus routes order events from producers to the create handler
// over NATS JetStream.
package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/abgdnv/online-orders/pkg/messaging"
	"github.com/google/uuid"
)

const (
	DefaultSource    = "com.lee.pizza"
	DetailTypeCreate = "CreateOrder"
	DefaultBusName   = "OnlineOrdersEventBus"
)

// Envelope is the routed event as seen by producers and subscribers.
type Envelope struct {
	ID         string          `json:"id"`
	Source     string          `json:"source"`
	DetailType string          `json:"detailType"`
	Time       time.Time       `json:"time"`
	Detail     json.RawMessage `json:"detail"`
}

// NewEnvelope wraps detail in an envelope with a new id.
func NewEnvelope(source, detailType string, detail json.RawMessage) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Source:     source,
		DetailType: detailType,
		Time:       time.Now().UTC(),
		Detail:     detail,
	}
}

// SourceToken turns a dotted source into a single subject token.
func SourceToken(source string) string {
	return strings.ReplaceAll(source, ".", "_")
}

// Subject returns <bus>.<source>.<detailType>.
func Subject(bus, source, detailType string) string {
	return fmt.Sprintf("%s.%s.%s", bus, SourceToken(source), detailType)
}

// SourceFilter matches every detail type emitted by source on bus.
func SourceFilter(bus, source string) string {
	return fmt.Sprintf("%s.%s.>", bus, SourceToken(source))
}

// StreamSubjects covers everything published on bus.
func StreamSubjects(bus string) []string {
	return []string{bus + ".>"}
}

// busEvent binds an envelope to the bus it is published on.
type busEvent struct {
	bus      string
	envelope Envelope
}

var _ messaging.Event = busEvent{}
var _ messaging.Identifiable = busEvent{}

func (e busEvent) Subject() string {
	return Subject(e.bus, e.envelope.Source, e.envelope.DetailType)
}

func (e busEvent) Payload() ([]byte, error) {
	return json.Marshal(e.envelope)
}

func (e busEvent) EventID() string {
	return e.envelope.ID
}
