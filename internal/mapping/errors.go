package mapping

import (
	"errors"
	"fmt"
)

// ConfigError is a fatal configuration problem. The bridge does not start.
type ConfigError struct {
	Section string
	Key     string
	Msg     string
}

func (e *ConfigError) Error() string {
	return location(e.Section, e.Key) + e.Msg
}

// ConfigWarning is a non-fatal problem; the offending entry is skipped.
type ConfigWarning struct {
	Section string
	Key     string
	Msg     string
}

func (w *ConfigWarning) String() string {
	return location(w.Section, w.Key) + w.Msg
}

func location(section, key string) string {
	switch {
	case section != "" && key != "":
		return fmt.Sprintf("[%s] %s: ", section, key)
	case section != "":
		return fmt.Sprintf("[%s]: ", section)
	default:
		return ""
	}
}

// Report collects the outcome of building a ChannelMap.
type Report struct {
	Errors   []*ConfigError
	Warnings []*ConfigWarning
	// Notices describe intentional configuration, such as disabled sections.
	Notices []string
}

func (r *Report) errorf(section, key, format string, args ...interface{}) {
	r.Errors = append(r.Errors, &ConfigError{Section: section, Key: key, Msg: fmt.Sprintf(format, args...)})
}

func (r *Report) warnf(section, key, format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, &ConfigWarning{Section: section, Key: key, Msg: fmt.Sprintf(format, args...)})
}

func (r *Report) noticef(section, key, format string, args ...interface{}) {
	r.Notices = append(r.Notices, location(section, key)+fmt.Sprintf(format, args...))
}

// Err joins all fatal errors, nil when there are none.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}
