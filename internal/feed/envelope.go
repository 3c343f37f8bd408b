package feed

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Envelope parsing errors.
var (
	ErrInvalidCBOR   = errors.New("invalid CBOR data")
	ErrMissingSource = errors.New("missing source in envelope")
	ErrNoEvents      = errors.New("envelope contains no events")
)

// KindEvents is the envelope kind carrying event records. Other kinds
// (heartbeats, source status) are skipped by the handler.
const KindEvents = "events"

// Envelope is the top-level message structure of the partner feed.
type Envelope struct {
	// Source identifies the publishing partner.
	Source string `cbor:"source"`

	// TimeUS is the publish timestamp in microseconds.
	TimeUS int64 `cbor:"time_us"`

	// Kind is the message type ("events", "heartbeat", "status").
	Kind string `cbor:"kind"`

	// Events holds the CBOR-encoded raw event records (when Kind == "events").
	Events []cbor.RawMessage `cbor:"events,omitempty"`
}

// DecodeEnvelope decodes a CBOR-encoded feed envelope.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	if len(data) == 0 {
		return nil, ErrInvalidCBOR
	}

	var env Envelope
	dec := cbor.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCBOR, err)
	}
	if env.Source == "" {
		return nil, ErrMissingSource
	}
	return &env, nil
}

// ParseEvents decodes the envelope's event records into raw field maps
// ready for normalization.
func (e *Envelope) ParseEvents() ([]map[string]any, error) {
	if len(e.Events) == 0 {
		return nil, ErrNoEvents
	}

	dm, err := cbor.DecOptions{
		// Allow byte-string keys in maps; partner encoders disagree here.
		MapKeyByteString: cbor.MapKeyByteStringAllowed,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR decoder: %w", err)
	}

	out := make([]map[string]any, 0, len(e.Events))
	for i, raw := range e.Events {
		var decoded any
		if err := dm.Unmarshal(raw, &decoded); err != nil {
			return nil, fmt.Errorf("failed to decode event %d: %w", i, err)
		}
		converted, ok := toStringKeyedMaps(decoded).(map[string]any)
		if !ok {
			return nil, fmt.Errorf("event %d is not a map", i)
		}
		out = append(out, converted)
	}
	return out, nil
}

// EncodeEnvelope encodes an envelope to CBOR bytes. Used by tests and
// the feed replay tooling.
func EncodeEnvelope(env *Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := cbor.NewEncoder(&buf)
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("failed to encode envelope: %w", err)
	}
	return buf.Bytes(), nil
}

// toStringKeyedMaps recursively converts map[any]any to map[string]any so
// decoded records can flow into the normalizer.
func toStringKeyedMaps(data any) any {
	switch v := data.(type) {
	case map[any]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			var strKey string
			switch k := key.(type) {
			case string:
				strKey = k
			case []byte:
				strKey = string(k)
			default:
				strKey = fmt.Sprintf("%v", k)
			}
			result[strKey] = toStringKeyedMaps(value)
		}
		return result
	case map[string]any:
		result := make(map[string]any, len(v))
		for key, value := range v {
			result[key] = toStringKeyedMaps(value)
		}
		return result
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = toStringKeyedMaps(item)
		}
		return result
	default:
		return v
	}
}
