package queue

import (
	"fmt"
	"net"

	"github.com/xact-systems/xact/pkg/config"
)

func init() {
	RegisterTransport("tcp_server", tcpServerTransport)
	RegisterTransport("tcp_client", tcpClientTransport)
}

// tcpServerTransport runs on the edge's owner host. It binds the edge's
// assigned port and accepts the single peer connection. Which direction
// data flows depends on which side the owner is, so the server may be
// either the sender or the receiver.
func tcpServerTransport(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error) {
	port, err := cfg.EdgePort(edge)
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", port, err)
	}
	cleanup := func() { listener.Close() }
	if sender {
		return newSendEndpoint(acceptOnce(listener), cleanup), nil
	}
	return newRecvEndpoint(acceptOnce(listener), cleanup), nil
}

// tcpClientTransport runs on the non-owner host and dials the owner.
func tcpClientTransport(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error) {
	port, err := cfg.EdgePort(edge)
	if err != nil {
		return nil, err
	}
	owner, ok := cfg.Host[edge.IDHostOwner]
	if !ok {
		return nil, fmt.Errorf("edge %s: unknown owner host %q", edge.IDEdge, edge.IDHostOwner)
	}
	hostname := owner.Hostname
	if hostname == "" {
		hostname = "localhost"
	}
	address := fmt.Sprintf("%s:%d", hostname, port)
	if sender {
		return newSendEndpoint(dialWithRetry("tcp", address)), nil
	}
	return newRecvEndpoint(dialWithRetry("tcp", address)), nil
}
