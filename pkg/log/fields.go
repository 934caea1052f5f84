package log

import "time"

// Field is a single structured key/value pair.
type Field struct {
	Key   string
	Value any
}

// F builds a Field with an arbitrary value.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

func Str(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

func Dur(key string, value time.Duration) Field { return Field{Key: key, Value: value.String()} }

// Err attaches an error under the "error" key. A nil error yields an empty value.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: ""}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component tags entries with the emitting component.
func Component(name string) Field { return Field{Key: ComponentKey, Value: name} }

const (
	ComponentKey = "component"
	RequestIDKey = "request_id"
)
