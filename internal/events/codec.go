package events

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"

	"github.com/hugo-lorenzo-mato/conductor/internal/core"
)

// Envelope is the wire format for events: a type tag naming a registered
// decoder plus the event payload.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Registry maps event type tags to their concrete Go types. It is a
// closed set: decoding a payload with an unknown tag fails with a
// validation error. Registration happens at startup, before traffic.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewRegistry creates an event registry with the reserved built-in
// types pre-registered.
func NewRegistry() *Registry {
	r := &Registry{types: make(map[string]reflect.Type)}
	r.Register(&StepStateChanged{})
	return r
}

// Register adds an event type to the registry, keyed by its EventType
// tag. Re-registering a tag overwrites the previous type.
func (r *Registry) Register(proto Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := reflect.TypeOf(proto)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	r.types[proto.EventType()] = t
}

// Known reports whether a type tag is registered.
func (r *Registry) Known(eventType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[eventType]
	return ok
}

// Decode parses an envelope and returns the typed event. The type tag is
// extracted without decoding the payload; unknown tags and malformed
// payloads fail with validation errors.
func (r *Registry) Decode(raw []byte) (Event, error) {
	tag := gjson.GetBytes(raw, "type")
	if !tag.Exists() || tag.String() == "" {
		return nil, core.ErrValidation(core.CodeBadEvent, "event envelope missing type tag")
	}

	r.mu.RLock()
	t, ok := r.types[tag.String()]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownEventType,
			fmt.Sprintf("unknown event type %q", tag.String()))
	}

	data := gjson.GetBytes(raw, "data")
	payload := []byte(data.Raw)
	if !data.Exists() {
		payload = []byte("{}")
	}

	ev := reflect.New(t).Interface()
	if err := json.Unmarshal(payload, ev); err != nil {
		return nil, core.ErrValidation(core.CodeBadEvent,
			fmt.Sprintf("decoding %q payload: %v", tag.String(), err))
	}
	return ev.(Event), nil
}

// DecodeStart parses a start event. Clients may send the tagged wire
// envelope, or the bare payload of the workflow's declared start type
// with declaredType resolving the decoder. A bare payload for a
// workflow that declares no start type cannot be resolved and is
// rejected.
func (r *Registry) DecodeStart(declaredType string, raw []byte) (Event, error) {
	if gjson.GetBytes(raw, "type").Exists() {
		return r.Decode(raw)
	}
	if declaredType == "" {
		return nil, core.ErrValidation(core.CodeBadStartEvent,
			"workflow declares no start event type, send a tagged envelope")
	}

	r.mu.RLock()
	t, ok := r.types[declaredType]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrValidation(core.CodeUnknownEventType,
			fmt.Sprintf("unknown event type %q", declaredType))
	}

	ev := reflect.New(t).Interface()
	if err := json.Unmarshal(raw, ev); err != nil {
		return nil, core.ErrValidation(core.CodeBadStartEvent,
			fmt.Sprintf("decoding %q payload: %v", declaredType, err))
	}
	return ev.(Event), nil
}

// Encode wraps an event in its wire envelope.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshaling event %q: %w", ev.EventType(), err)
	}
	return json.Marshal(Envelope{Type: ev.EventType(), Data: data})
}

// Schema renders the JSON schema of a registered event type.
func (r *Registry) Schema(eventType string) (json.RawMessage, error) {
	r.mu.RLock()
	t, ok := r.types[eventType]
	r.mu.RUnlock()
	if !ok {
		return nil, core.ErrNotFound("event type", eventType)
	}

	reflector := jsonschema.Reflector{
		DoNotReference: true,
		Anonymous:      true,
	}
	schema := reflector.ReflectFromType(t)
	out, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema for %q: %w", eventType, err)
	}
	return out, nil
}
