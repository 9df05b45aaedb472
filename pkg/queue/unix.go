package queue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/xact-systems/xact/pkg/config"
)

func init() {
	RegisterTransport("unix", unixTransport)
}

// RundirPath returns the per-system runtime directory that holds unix
// sockets and pidfiles.
func RundirPath(idSystem string) string {
	return filepath.Join(os.TempDir(), "xact_"+idSystem)
}

// socketPath derives the rendezvous socket for an edge. The edge id is
// hashed to stay inside the unix socket path length limit.
func socketPath(idSystem, idEdge string) string {
	sum := sha256.Sum256([]byte(idEdge))
	return filepath.Join(RundirPath(idSystem), hex.EncodeToString(sum[:8])+".sock")
}

// unixTransport carries inter-process edges over a unix domain socket in
// the system rundir. The sending side listens and the receiving side
// dials, so both processes derive the rendezvous point from the config
// alone.
func unixTransport(cfg *config.Config, edge *config.EdgeConfig, sender bool) (Endpoint, error) {
	path := socketPath(cfg.System.IDSystem, edge.IDEdge)

	if !sender {
		return newRecvEndpoint(dialWithRetry("unix", path)), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create rundir: %w", err)
	}
	// A stale socket from a crashed earlier run blocks the bind.
	os.Remove(path)
	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", path, err)
	}
	cleanup := func() {
		listener.Close()
		os.Remove(path)
	}
	return newSendEndpoint(acceptOnce(listener), cleanup), nil
}
