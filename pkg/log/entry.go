package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Entry is one structured log line.
type Entry struct {
	Timestamp time.Time
	Level     Level
	Caller    string
	RequestID string
	Message   string
	Fields    map[string]any
}

var reservedKeys = map[string]bool{
	"timestamp":  true,
	"level":      true,
	"msg":        true,
	"caller":     true,
	"request_id": true,
}

// MarshalJSON writes a flat object: timestamp, level, msg, then caller and
// request_id when set, then the fields sorted by key. A field that shadows
// one of those names is written as "fields.<name>".
func (e Entry) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	first := true
	write := func(key string, value any) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		k, _ := json.Marshal(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encodeValue(value))
	}

	write("timestamp", e.Timestamp.UTC().Format(time.RFC3339))
	write("level", e.Level.String())
	write("msg", e.Message)
	if e.Caller != "" {
		write("caller", e.Caller)
	}
	if e.RequestID != "" {
		write("request_id", e.RequestID)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		name := k
		if reservedKeys[k] {
			name = "fields." + k
		}
		write(name, e.Fields[k])
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeValue renders errors and durations as text. Values encoding/json
// rejects (channels, funcs, cyclic data) fall back to their %v form.
func encodeValue(v any) []byte {
	switch t := v.(type) {
	case error:
		if t != nil {
			v = t.Error()
		}
	case time.Duration:
		v = t.String()
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprintf("%v", v))
	}
	return data
}

// addPairs copies alternating key/value arguments into fields. Non-string
// keys and a trailing key without value are ignored.
func addPairs(fields map[string]any, keysAndValues []any) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
}
