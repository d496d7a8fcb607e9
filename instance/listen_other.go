//go:build !windows

package instance

import (
	"net"
)

// listenExclusive binds addr. On Unix a second listener on the same port
// fails with EADDRINUSE even with SO_REUSEADDR set.
func listenExclusive(addr string) (*net.TCPListener, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, err
	}
	return net.ListenTCP("tcp", tcpAddr)
}
