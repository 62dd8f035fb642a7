package artnet

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ipNet(t *testing.T, s string) *net.IPNet {
	t.Helper()
	ip, n, err := net.ParseCIDR(s)
	require.NoError(t, err)
	n.IP = ip
	return n
}

func TestMatchIP(t *testing.T) {
	addrs := []net.Addr{
		ipNet(t, "fe80::1/64"),
		ipNet(t, "192.168.1.10/24"),
		ipNet(t, "2.0.0.17/8"),
	}

	ip, err := matchIP("2.0.0.0/8", addrs)
	require.NoError(t, err)
	assert.Equal(t, "2.0.0.17", ip.String())

	_, err = matchIP("10.0.0.0/8", addrs)
	assert.ErrorIs(t, err, ErrNoInterface)

	_, err = matchIP("garbage", addrs)
	assert.Error(t, err)
}
