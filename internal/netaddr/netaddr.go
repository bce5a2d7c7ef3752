// Package netaddr finds the LAN address other devices can reach this
// machine on.
package netaddr

import (
	"fmt"
	"net"
	"strconv"

	"github.com/jackpal/gateway"
)

// Fallback is returned when no outward-facing address can be found.
const Fallback = "127.0.0.1"

var (
	discoverGateway = gateway.DiscoverGateway
	interfaceAddrs  = net.InterfaceAddrs
	dialUDP         = func(addr string) (net.Conn, error) { return net.Dial("udp", addr) }
)

// LocalIP returns the IPv4 address of the interface sitting on the same
// subnet as the default gateway. If that fails it asks the kernel which
// source address it would use to reach a public host (no packet is sent),
// and finally falls back to loopback.
func LocalIP() string {
	if gw, err := discoverGateway(); err == nil {
		if ip, err := ipForGateway(gw); err == nil {
			return ip.String()
		}
	}
	if ip, err := outboundIP(); err == nil {
		return ip.String()
	}
	return Fallback
}

// ipForGateway finds the local IPv4 address whose subnet contains gw.
func ipForGateway(gw net.IP) (net.IP, error) {
	addrs, err := interfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("interface addresses: %w", err)
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipnet.IP.To4()
		if ip == nil || ip.IsLoopback() || !ip.IsGlobalUnicast() {
			continue
		}
		if ipnet.Contains(gw) {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no local IPv4 address on the subnet of gateway %s", gw)
}

func outboundIP() (net.IP, error) {
	conn, err := dialUDP("8.8.8.8:80")
	if err != nil {
		return nil, err
	}
	defer func() { _ = conn.Close() }()

	udp, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || udp.IP == nil || udp.IP.IsUnspecified() {
		return nil, fmt.Errorf("no usable local address")
	}
	return udp.IP, nil
}

// JoinHostPort is net.JoinHostPort for an int port.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
