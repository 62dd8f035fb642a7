package artnet

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoInterface is returned when no local address lies in the requested range.
var ErrNoInterface = errors.New("no interface found")

// FindArtNetIP finds the matching interface with an IPv4 address inside cidr.
func FindArtNetIP(cidr string) (net.IP, error) {
	address, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("error getting ips: %w", err)
	}
	return matchIP(cidr, address)
}

func matchIP(cidr string, address []net.Addr) (net.IP, error) {
	_, cidrNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid interface range %q: %w", cidr, err)
	}

	for _, addr := range address {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		if cidrNet.Contains(ip) {
			return ip, nil
		}
	}

	return nil, fmt.Errorf("%w in %s", ErrNoInterface, cidr)
}
