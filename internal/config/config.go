package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Протоколы секций вывода.
const (
	ProtocolOSC  = "osc"
	ProtocolMQTT = "mqtt"
)

const (
	defaultArtNetPort    = 6454
	defaultInterfaceCIDR = "2.0.0.0/8"
	defaultSendTimeout   = 250 * time.Millisecond
	defaultBaudRate      = 57600
	defaultTopicPrefix   = "dmx2osc"
)

// Config структура конфигурации.
type Config struct {
	Logger     LogConf              `toml:"logger"`     // Logger - конфигурация регистратора.
	Dispatch   DispatchConf         `toml:"dispatch"`   // Dispatch - параметры рассылки.
	ArtNet     ArtNetConf           `toml:"art-net"`    // ArtNet - вход Art-Net.
	Device     DeviceConf           `toml:"dmx-device"` // Device - вход с DMX-адаптера.
	Vocabulary map[string]VocabConf `toml:"vocabulary"` // Vocabulary - закрытый словарь команд.

	OSC  map[string]map[string]interface{} `toml:"osc"`
	MQTT map[string]map[string]interface{} `toml:"mqtt"`

	// Outputs holds the osc and mqtt sections in document order.
	Outputs []OutputSection `toml:"-"`
	// Warnings are non-fatal problems found while reading the file.
	Warnings []string `toml:"-"`
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level"` // Level - уровень логирования.
	Format string `toml:"format"`    // Format - text или json.
}

// DispatchConf структура конфигурации.
type DispatchConf struct {
	SendTimeout   Duration `toml:"send-timeout"`   // SendTimeout - предел времени на одну отправку.
	StatsInterval Duration `toml:"stats-interval"` // StatsInterval - период вывода статистики, 0 - выключено.
}

// ArtNetConf структура конфигурации.
type ArtNetConf struct {
	Enabled       bool   `toml:"enabled"`
	ListenAddress string `toml:"listen-address"` // ListenAddress - адрес или "auto".
	InterfaceCIDR string `toml:"interface-cidr"` // InterfaceCIDR - сеть для поиска адреса в режиме "auto".
	Port          int    `toml:"port"`
	Universe      int    `toml:"universe"`
}

// DeviceConf структура конфигурации.
type DeviceConf struct {
	Enabled  bool   `toml:"enabled"`
	Port     string `toml:"port"` // Port - путь к последовательному порту.
	BaudRate int    `toml:"baud-rate"`
	Universe int    `toml:"universe"`
}

// VocabConf describes one command of a closed vocabulary.
type VocabConf struct {
	Type        string `toml:"type"`
	Description string `toml:"description"`
	Min         int    `toml:"min"`
	Max         int    `toml:"max"`
}

// OutputSection is one [osc.<name>] or [mqtt.<name>] table.
type OutputSection struct {
	Name     string
	Protocol string
	Enabled  bool

	// Server and Port are kept raw; the channel map builder validates them.
	Server    string
	Port      string
	HasServer bool
	HasPort   bool

	// MQTT only.
	ClientID    string
	User        string
	Password    string
	TopicPrefix string
	Qos         byte

	Channels []ChannelEntry
}

// ChannelEntry is a "channel_<N> = <command>" line of an output section.
type ChannelEntry struct {
	Key   string
	Value string
}

// Duration allows "250ms" style values in the configuration file.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// UsesDevice reports whether the DMX device input drives the bridge.
func (c *Config) UsesDevice() bool {
	return c.Device.Enabled
}

// NewConfig конструктор.
func NewConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return cfg, err
	}
	if err := cfg.finish(md); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Parse reads the configuration from a TOML document.
func Parse(data string) (*Config, error) {
	cfg := defaultConfig()
	md, err := toml.Decode(data, cfg)
	if err != nil {
		return cfg, err
	}
	if err := cfg.finish(md); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	// default values
	return &Config{
		Logger:   LogConf{Level: "info", Format: "text"},
		Dispatch: DispatchConf{SendTimeout: Duration{defaultSendTimeout}},
		ArtNet: ArtNetConf{
			Enabled:       true,
			InterfaceCIDR: defaultInterfaceCIDR,
			Port:          defaultArtNetPort,
		},
		Device: DeviceConf{BaudRate: defaultBaudRate},
	}
}

func (c *Config) finish(md toml.MetaData) error {
	for _, key := range md.Undecoded() {
		c.warnf("ignoring unknown configuration key %q", key.String())
	}

	c.collectOutputs(md)

	var errs []error
	if !md.IsDefined("art-net") {
		c.warnf("section %q not found in config file", "art-net")
		c.ArtNet.Enabled = false
	}
	if c.ArtNet.Enabled && strings.TrimSpace(c.ArtNet.ListenAddress) == "" {
		errs = append(errs, errors.New("art-net option 'listen-address' not configured"))
	}
	if c.ArtNet.Port <= 0 || c.ArtNet.Port > 65535 {
		errs = append(errs, fmt.Errorf("art-net option 'port' out of range: %d", c.ArtNet.Port))
	}
	if c.ArtNet.Universe < 0 || c.ArtNet.Universe > 255 {
		errs = append(errs, fmt.Errorf("art-net option 'universe' out of range: %d", c.ArtNet.Universe))
	}
	if c.Device.Enabled && strings.TrimSpace(c.Device.Port) == "" {
		errs = append(errs, errors.New("dmx-device option 'port' not configured"))
	}
	if !c.ArtNet.Enabled && !c.Device.Enabled {
		errs = append(errs, errors.New("no input method in config file defined/enabled"))
	}
	if c.ArtNet.Enabled && c.Device.Enabled {
		c.warnf("both art-net and dmx-device are enabled, using dmx-device")
	}
	if c.Dispatch.SendTimeout.Duration <= 0 {
		c.Dispatch.SendTimeout.Duration = defaultSendTimeout
	}
	return errors.Join(errs...)
}

// collectOutputs walks the keys in document order so that destinations and
// channel entries keep the order they were written in.
func (c *Config) collectOutputs(md toml.MetaData) {
	index := map[string]int{}
	for _, key := range md.Keys() {
		if len(key) < 2 {
			continue
		}
		protocol := key[0]
		var raw map[string]interface{}
		switch protocol {
		case ProtocolOSC:
			raw = c.OSC[key[1]]
		case ProtocolMQTT:
			raw = c.MQTT[key[1]]
		default:
			continue
		}

		id := protocol + "/" + key[1]
		i, ok := index[id]
		if !ok {
			i = len(c.Outputs)
			index[id] = i
			c.Outputs = append(c.Outputs, OutputSection{
				Name:        key[1],
				Protocol:    protocol,
				Enabled:     true,
				TopicPrefix: defaultTopicPrefix,
			})
		}
		if len(key) != 3 {
			continue
		}
		c.applyOption(&c.Outputs[i], key[2], raw[key[2]])
	}
}

func (c *Config) applyOption(s *OutputSection, name string, value interface{}) {
	section := s.Protocol + "." + s.Name
	switch name {
	case "enabled":
		b, ok := value.(bool)
		if !ok {
			c.warnf("option 'enabled' in section %q must be a boolean", section)
			return
		}
		s.Enabled = b
	case "server":
		s.Server, s.HasServer = strings.TrimSpace(scalar(value)), true
	case "port":
		s.Port, s.HasPort = strings.TrimSpace(scalar(value)), true
	default:
		if s.Protocol == ProtocolMQTT && c.applyMQTTOption(s, name, value) {
			return
		}
		str, ok := value.(string)
		if !ok {
			c.warnf("config item '%s' in section %q must be a string", name, section)
			return
		}
		s.Channels = append(s.Channels, ChannelEntry{Key: name, Value: strings.TrimSpace(str)})
	}
}

func (c *Config) applyMQTTOption(s *OutputSection, name string, value interface{}) bool {
	switch name {
	case "client-id":
		s.ClientID = scalar(value)
	case "user":
		s.User = scalar(value)
	case "password":
		s.Password = scalar(value)
	case "topic-prefix":
		s.TopicPrefix = strings.Trim(scalar(value), "/")
	case "qos":
		q, ok := value.(int64)
		if !ok || q < 0 || q > 2 {
			c.warnf("option 'qos' in section %q must be 0, 1 or 2", s.Protocol+"."+s.Name)
			return true
		}
		s.Qos = byte(q)
	default:
		return false
	}
	return true
}

func (c *Config) warnf(format string, args ...interface{}) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func scalar(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}
