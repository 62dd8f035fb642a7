package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the closed set of command types a channel can be bound to.
type Kind int

const (
	Value Kind = iota
	Trigger
	Toggle
	Range
	Custom
	NoneSmooth
)

var kindNames = map[Kind]string{
	Value:      "value",
	Trigger:    "trigger",
	Toggle:     "toggle",
	Range:      "range",
	Custom:     "custom",
	NoneSmooth: "nonesmooth",
}

// labels are attached to boolean commands for logging only.
var labels = map[Kind][2]string{
	Trigger:    {"None", "Triggered"},
	Toggle:     {"Off", "On"},
	Custom:     {"Inactive", "Active"},
	NoneSmooth: {"Smooth", "None"},
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind returns the Kind for a type name. Inline command strings only
// accept the first four kinds, vocabularies accept all of them.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// CommandType is a Kind plus the bounds used by Range.
type CommandType struct {
	Kind Kind
	Min  int
	Max  int
}

func (t CommandType) String() string {
	if t.Kind == Range {
		return fmt.Sprintf("range(%d..%d)", t.Min, t.Max)
	}
	return t.Kind.String()
}

// Boolean reports whether outbound values are clamped to 0 or 1.
func (t CommandType) Boolean() bool {
	_, ok := labels[t.Kind]
	return ok
}

// Transform converts a DMX value already clamped to [0,255] into the outbound
// value. The label is empty for Value and Range.
//
// Range maps the 256 input steps onto max-min+1 output levels and floors the
// floating point result: 0 yields min and 255 yields max for spans up to 256.
func (t CommandType) Transform(v int) (int, string) {
	switch t.Kind {
	case Value:
		return v, ""
	case Range:
		span := t.Max - t.Min + 1
		return int(math.Floor(float64(t.Min) + float64(span)/256.0*float64(v))), ""
	default:
		l := labels[t.Kind]
		if v > 0 {
			return 1, l[1]
		}
		return 0, l[0]
	}
}

// commandError is turned into a ConfigError when fatal, a ConfigWarning otherwise.
type commandError struct {
	fatal bool
	msg   string
}

func (e *commandError) Error() string { return e.msg }

// ParseCommand parses an inline "<name>:<type>[:<min>:<max>]" command string.
func ParseCommand(raw string) (string, CommandType, error) {
	parts := strings.Split(raw, ":")
	name := parts[0]
	if len(parts) == 1 {
		return name, CommandType{}, &commandError{fatal: true,
			msg: fmt.Sprintf("missing command type for command '%s'", name)}
	}
	if name == "" {
		return name, CommandType{}, &commandError{fatal: true, msg: "empty command name"}
	}

	kind, ok := ParseKind(parts[1])
	if !ok || kind > Range {
		return name, CommandType{}, &commandError{
			msg: fmt.Sprintf("invalid command type '%s' for command '%s'", parts[1], name)}
	}

	if kind != Range {
		if len(parts) != 2 {
			return name, CommandType{}, &commandError{fatal: true,
				msg: fmt.Sprintf("unexpected arguments for command type '%s' in '%s'", parts[1], raw)}
		}
		return name, CommandType{Kind: kind}, nil
	}

	if len(parts) != 4 {
		return name, CommandType{}, &commandError{fatal: true,
			msg: fmt.Sprintf("wrong format '%s' for command type 'range', expected name:range:min:max", raw)}
	}
	lo, errLo := strconv.Atoi(parts[2])
	hi, errHi := strconv.Atoi(parts[3])
	if errLo != nil || errHi != nil {
		return name, CommandType{}, &commandError{fatal: true,
			msg: fmt.Sprintf("command type 'range' start and end must be int, got '%s:%s'", parts[2], parts[3])}
	}
	if err := checkBounds(lo, hi); err != nil {
		return name, CommandType{}, &commandError{fatal: true, msg: err.Error()}
	}
	if lo > hi {
		return name, CommandType{}, &commandError{fatal: true,
			msg: fmt.Sprintf("command type 'range' start %d is greater than end %d", lo, hi)}
	}
	return name, CommandType{Kind: Range, Min: lo, Max: hi}, nil
}

// checkBounds rejects range ends that do not fit the int32 OSC argument.
func checkBounds(lo, hi int) error {
	for _, v := range []int{lo, hi} {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return fmt.Errorf("command type 'range' bound %d does not fit a 32-bit integer", v)
		}
	}
	return nil
}
