package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// TextFormatter renders "ts LEVEL msg key=value ..." lines with sorted keys.
type TextFormatter struct {
	// TimeFormat defaults to time.RFC3339.
	TimeFormat string
	// DisableTimestamp drops the leading timestamp (useful in tests).
	DisableTimestamp bool
}

func (f *TextFormatter) Format(e *Entry) ([]byte, error) {
	var buf bytes.Buffer
	if !f.DisableTimestamp {
		layout := f.TimeFormat
		if layout == "" {
			layout = time.RFC3339
		}
		buf.WriteString(e.Timestamp.Format(layout))
		buf.WriteByte(' ')
	}
	fmt.Fprintf(&buf, "%-5s %s", e.Level.String(), e.Message)
	for _, k := range sortedKeys(e.Fields) {
		buf.WriteByte(' ')
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(textValue(e.Fields[k]))
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func textValue(v any) string {
	s := fmt.Sprint(v)
	if s == "" || strings.ContainsAny(s, " \t\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// JSONFormatter renders one JSON object per line.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(e *Entry) ([]byte, error) {
	obj := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		obj[k] = v
	}
	obj["ts"] = e.Timestamp.Format(time.RFC3339Nano)
	obj["level"] = strings.ToLower(e.Level.String())
	obj["msg"] = e.Message
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(m Fields) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
