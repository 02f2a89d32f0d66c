package log

import (
	"errors"
	"fmt"
	"strings"
)

// Level is the severity of an entry. Higher is more severe.
type Level int

const (
	Trace Level = iota
	Debug
	Info
	Warn
	Error
	Fatal
)

// disabled is above every level; a logger set to it writes nothing.
const disabled = Fatal + 1

// ErrInvalidLevel is returned by ParseLevel for unknown names.
var ErrInvalidLevel = errors.New("invalid log level")

func (l Level) String() string {
	switch l {
	case Trace:
		return "TRACE"
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	case Fatal:
		return "FATAL"
	}
	return "UNKNOWN"
}

// ParseLevel accepts level names in any case, plus "warning". Unknown
// names return Info with ErrInvalidLevel.
func ParseLevel(s string) (Level, error) {
	name := strings.TrimSpace(s)
	if strings.EqualFold(name, "warning") {
		return Warn, nil
	}
	for l := Trace; l <= Fatal; l++ {
		if strings.EqualFold(name, l.String()) {
			return l, nil
		}
	}
	return Info, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

// Enables reports whether a logger at l writes entries at target.
func (l Level) Enables(target Level) bool {
	return target >= l
}

func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
