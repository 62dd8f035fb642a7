package mapping

import (
	"strings"
	"testing"

	"dmx2osc/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oscSection(name, server, port string, channels ...string) config.OutputSection {
	s := config.OutputSection{
		Name:      name,
		Protocol:  config.ProtocolOSC,
		Enabled:   true,
		Server:    server,
		Port:      port,
		HasServer: true,
		HasPort:   true,
	}
	for i := 0; i+1 < len(channels); i += 2 {
		s.Channels = append(s.Channels, config.ChannelEntry{Key: channels[i], Value: channels[i+1]})
	}
	return s
}

func TestBuild_Basic(t *testing.T) {
	m, report := Build([]config.OutputSection{
		oscSection("a", "10.0.0.1", "7000",
			"channel_1", "/foo:toggle",
			"channel_2", "/bar:range:10:20",
			"channel_512", "/last:value"),
	}, nil)
	require.NoError(t, report.Err())
	assert.Empty(t, report.Warnings)
	assert.Equal(t, 3, m.Bound())

	b := m.Lookup(0)
	require.NotNil(t, b)
	assert.Equal(t, "/foo", b.Name)
	assert.Equal(t, "/foo:toggle", b.Command)
	assert.Equal(t, Toggle, b.Type.Kind)
	require.Len(t, b.Destinations, 1)
	assert.Equal(t, "10.0.0.1:7000", b.Destinations[0].Addr())

	assert.Equal(t, CommandType{Kind: Range, Min: 10, Max: 20}, m.Lookup(1).Type)
	assert.NotNil(t, m.Lookup(511))
	assert.Nil(t, m.Lookup(2))
	assert.Nil(t, m.Lookup(-1))
	assert.Nil(t, m.Lookup(512))
	assert.Len(t, m.Destinations(), 1)
}

func TestBuild_FanOutKeepsOrder(t *testing.T) {
	m, report := Build([]config.OutputSection{
		oscSection("first", "10.0.0.1", "7000", "channel_3", "/x:value"),
		oscSection("second", "10.0.0.2", "7001", "channel_3", "/x:value"),
	}, nil)
	require.NoError(t, report.Err())

	b := m.Lookup(2)
	require.Len(t, b.Destinations, 2)
	assert.Equal(t, "first", b.Destinations[0].Name)
	assert.Equal(t, "second", b.Destinations[1].Name)
	assert.Len(t, m.Destinations(), 2)
}

func TestBuild_ConflictingCommandsAreFatal(t *testing.T) {
	_, report := Build([]config.OutputSection{
		oscSection("first", "10.0.0.1", "7000", "channel_3", "/x:value"),
		oscSection("second", "10.0.0.2", "7001", "channel_3", "/x:toggle"),
	}, nil)
	require.Error(t, report.Err())
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0].Error(), "mismatch")
	assert.Contains(t, report.Errors[0].Error(), "osc.first")
}

func TestBuild_WarningsSkipEntries(t *testing.T) {
	m, report := Build([]config.OutputSection{
		oscSection("a", "h", "1",
			"chan_1", "/a:value",
			"channel_x", "/a:value",
			"channel_0", "/a:value",
			"channel_513", "/a:value",
			"channel_4", "/a:dim",
			"channel_5", "/ok:value"),
	}, nil)
	require.NoError(t, report.Err())
	assert.Len(t, report.Warnings, 5)
	assert.Equal(t, 1, m.Bound())
	assert.NotNil(t, m.Lookup(4))
}

func TestBuild_MalformedCommandIsFatal(t *testing.T) {
	_, report := Build([]config.OutputSection{
		oscSection("a", "h", "1", "channel_7", "/nocolon", "channel_8", "/r:range:1"),
	}, nil)
	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0].Error(), "channel '7'")
	assert.Contains(t, report.Errors[0].Error(), "/nocolon")
}

func TestBuild_DestinationValidation(t *testing.T) {
	missing := oscSection("nohost", "", "", "channel_1", "/a:value")
	missing.HasServer = false
	empty := oscSection("empty", "", "7000", "channel_1", "/a:value")
	badPort := oscSection("badport", "h", "70000", "channel_1", "/a:value")

	m, report := Build([]config.OutputSection{missing, empty, badPort}, nil)
	require.Error(t, report.Err())
	assert.Len(t, report.Errors, 4)
	assert.Equal(t, 0, m.Bound())
	msg := report.Err().Error()
	assert.Contains(t, msg, "'server' missing")
	assert.Contains(t, msg, "'server' empty")
	assert.Contains(t, msg, "invalid port '70000'")
}

func TestBuild_DisabledSection(t *testing.T) {
	s := oscSection("off", "h", "1", "channel_1", "/a:value")
	s.Enabled = false
	m, report := Build([]config.OutputSection{s}, nil)
	require.NoError(t, report.Err())
	assert.Equal(t, 0, m.Bound())
	assert.Empty(t, report.Warnings)
	require.Len(t, report.Notices, 1)
	assert.True(t, strings.HasPrefix(report.Notices[0], "[osc.off]"))
}

func TestBuild_Vocabulary(t *testing.T) {
	vocab, vr := NewVocabulary(map[string]config.VocabConf{
		"/cue/go":    {Type: "trigger", Description: "next cue"},
		"/smooth":    {Type: "nonesmooth"},
		"/intensity": {Type: "range", Min: 0, Max: 100},
	})
	require.NoError(t, vr.Err())

	m, report := Build([]config.OutputSection{
		oscSection("a", "h", "1",
			"channel_1", "/cue/go",
			"channel_2", "/smooth",
			"channel_3", "/intensity"),
	}, vocab)
	require.NoError(t, report.Err())
	assert.Equal(t, Trigger, m.Lookup(0).Type.Kind)
	assert.Equal(t, "next cue", m.Lookup(0).Description)
	assert.Equal(t, NoneSmooth, m.Lookup(1).Type.Kind)
	assert.Equal(t, CommandType{Kind: Range, Min: 0, Max: 100}, m.Lookup(2).Type)

	_, report = Build([]config.OutputSection{
		oscSection("a", "h", "1", "channel_1", "/cue/stop"),
	}, vocab)
	require.Error(t, report.Err())
	assert.Contains(t, report.Err().Error(), "not part of the vocabulary")
}

func TestNewVocabulary_Invalid(t *testing.T) {
	vocab, report := NewVocabulary(map[string]config.VocabConf{
		"/a": {Type: "dim"},
		"/b": {Type: "range", Min: 5, Max: 1},
		"/c": {Type: "Toggle"},
		"/d": {Type: "range", Min: 0, Max: 1 << 32},
	})
	require.Len(t, report.Errors, 3)
	assert.Contains(t, report.Err().Error(), "does not fit a 32-bit integer")
	assert.Len(t, vocab, 1)

	vocab, report = NewVocabulary(nil)
	assert.Nil(t, vocab)
	assert.NoError(t, report.Err())
}
