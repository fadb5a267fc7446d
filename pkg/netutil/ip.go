// Package netutil discovers the address display pages should show as the
// join URL.
package netutil

import (
	"fmt"
	"net"
)

// LocalIP returns the machine's first non-loopback IPv4 address, or
// "127.0.0.1" when none can be found.
func LocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}
	return "127.0.0.1"
}

// JoinURL builds the http URL clients should open for a host and port.
func JoinURL(ip, port string) string {
	return fmt.Sprintf("http://%s:%s", ip, port)
}
