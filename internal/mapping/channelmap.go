// Package mapping turns the output sections of the configuration into the
// table that tells the dispatcher what to send for every DMX channel.
package mapping

import (
	"net"
	"strconv"
	"strings"

	"dmx2osc/internal/config"
	"dmx2osc/internal/dmx"
)

// ChannelCount is the number of channels in one DMX universe.
const ChannelCount = dmx.ChannelCount

const channelPrefix = "channel"

// Destination is one receiver of translated values.
type Destination struct {
	Name     string
	Protocol string
	Host     string
	Port     uint16

	ClientID    string
	User        string
	Password    string
	TopicPrefix string
	Qos         byte
}

// Addr returns host:port.
func (d *Destination) Addr() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(int(d.Port)))
}

// Binding is what a single channel is mapped to.
type Binding struct {
	Command      string // raw command text, identical for every destination
	Name         string
	Type         CommandType
	Description  string
	Destinations []*Destination
}

// ChannelMap is indexed by slot (channel-1). It is not modified after Build.
type ChannelMap struct {
	slots        [ChannelCount]*Binding
	destinations []*Destination
}

// Lookup returns the binding of a slot or nil.
func (m *ChannelMap) Lookup(slot int) *Binding {
	if slot < 0 || slot >= ChannelCount {
		return nil
	}
	return m.slots[slot]
}

// Bound returns the number of bound channels.
func (m *ChannelMap) Bound() int {
	n := 0
	for _, b := range m.slots {
		if b != nil {
			n++
		}
	}
	return n
}

// Destinations returns every destination that has at least one channel, in
// configuration order.
func (m *ChannelMap) Destinations() []*Destination {
	return m.destinations
}

// VocabEntry is one command of a closed vocabulary.
type VocabEntry struct {
	Type        CommandType
	Description string
}

// Vocabulary maps command names to their declared type. A nil Vocabulary
// means commands carry their type inline.
type Vocabulary map[string]VocabEntry

// NewVocabulary validates the [vocabulary] tables. It returns nil when raw is
// empty.
func NewVocabulary(raw map[string]config.VocabConf) (Vocabulary, *Report) {
	report := &Report{}
	if len(raw) == 0 {
		return nil, report
	}
	vocab := make(Vocabulary, len(raw))
	for name, entry := range raw {
		section := "vocabulary." + name
		kind, ok := ParseKind(strings.ToLower(strings.TrimSpace(entry.Type)))
		if !ok {
			report.errorf(section, "type", "unknown command type '%s'", entry.Type)
			continue
		}
		t := CommandType{Kind: kind}
		if kind == Range {
			if err := checkBounds(entry.Min, entry.Max); err != nil {
				report.errorf(section, "min", "%v", err)
				continue
			}
			if entry.Min > entry.Max {
				report.errorf(section, "min", "range start %d is greater than end %d", entry.Min, entry.Max)
				continue
			}
			t.Min, t.Max = entry.Min, entry.Max
		}
		vocab[name] = VocabEntry{Type: t, Description: entry.Description}
	}
	return vocab, report
}

// Build creates the ChannelMap. The map is only usable when report.Err() is nil.
func Build(sections []config.OutputSection, vocab Vocabulary) (*ChannelMap, *Report) {
	m := &ChannelMap{}
	report := &Report{}
	// first section that bound each slot, for error messages
	owner := [ChannelCount]string{}

	for i := range sections {
		s := &sections[i]
		section := s.Protocol + "." + s.Name
		if !s.Enabled {
			report.noticef(section, "", "section is disabled and will be skipped")
			continue
		}

		dest, ok := newDestination(s, report)
		if !ok {
			continue
		}
		used := false

		for _, entry := range s.Channels {
			slot, ok := parseChannelKey(section, entry.Key, report)
			if !ok {
				continue
			}

			var (
				name string
				t    CommandType
				desc string
			)
			if vocab != nil {
				v, found := vocab[entry.Value]
				if !found {
					report.errorf(section, entry.Key, "command '%s' is not part of the vocabulary", entry.Value)
					continue
				}
				name, t, desc = entry.Value, v.Type, v.Description
			} else {
				var err error
				name, t, err = ParseCommand(entry.Value)
				if err != nil {
					if ce, ok := err.(*commandError); ok && !ce.fatal {
						report.warnf(section, entry.Key, "%s for channel '%d'", ce.msg, slot+1)
					} else {
						report.errorf(section, entry.Key, "%v for channel '%d' (%q)", err, slot+1, entry.Value)
					}
					continue
				}
			}

			if b := m.slots[slot]; b != nil {
				if b.Command != entry.Value {
					report.errorf(section, entry.Key,
						"channel definition mismatch between '%s' (%q) and '%s' (%q) for channel '%d'",
						owner[slot], b.Command, section, entry.Value, slot+1)
					continue
				}
				b.Destinations = append(b.Destinations, dest)
			} else {
				m.slots[slot] = &Binding{
					Command:      entry.Value,
					Name:         name,
					Type:         t,
					Description:  desc,
					Destinations: []*Destination{dest},
				}
				owner[slot] = section
			}
			used = true
		}

		if used {
			m.destinations = append(m.destinations, dest)
		}
	}

	return m, report
}

func newDestination(s *config.OutputSection, report *Report) (*Destination, bool) {
	section := s.Protocol + "." + s.Name
	ok := true
	if !s.HasServer {
		report.errorf(section, "server", "option 'server' missing")
		ok = false
	} else if s.Server == "" {
		report.errorf(section, "server", "option 'server' empty for destination '%s'", s.Name)
		ok = false
	}

	var port uint64
	if !s.HasPort {
		report.errorf(section, "port", "option 'port' missing")
		ok = false
	} else if s.Port == "" {
		report.errorf(section, "port", "option 'port' empty for destination '%s'", s.Name)
		ok = false
	} else {
		var err error
		port, err = strconv.ParseUint(s.Port, 10, 16)
		if err != nil || port == 0 {
			report.errorf(section, "port", "invalid port '%s'", s.Port)
			ok = false
		}
	}
	if !ok {
		return nil, false
	}

	return &Destination{
		Name:        s.Name,
		Protocol:    s.Protocol,
		Host:        s.Server,
		Port:        uint16(port),
		ClientID:    s.ClientID,
		User:        s.User,
		Password:    s.Password,
		TopicPrefix: s.TopicPrefix,
		Qos:         s.Qos,
	}, true
}

// parseChannelKey turns "channel_<N>" into slot N-1.
func parseChannelKey(section, key string, report *Report) (int, bool) {
	prefix, num, found := strings.Cut(key, "_")
	if !found || prefix != channelPrefix {
		report.warnf(section, key, "config item starts with wrong prefix, expected: '%s_'", channelPrefix)
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil {
		report.warnf(section, key, "channel must be int but '%s' given", num)
		return 0, false
	}
	if n < 1 {
		report.warnf(section, key, "channels need to start with 1")
		return 0, false
	}
	if n > ChannelCount {
		report.warnf(section, key, "exceeds the maximum number of valid DMX channels: %d", ChannelCount)
		return 0, false
	}
	return n - 1, true
}
