package proc_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xact-systems/xact/internal/testutil"
	"github.com/xact-systems/xact/pkg/config"
	"github.com/xact-systems/xact/pkg/node"
	"github.com/xact-systems/xact/pkg/proc"
	"github.com/xact-systems/xact/pkg/queue"
	"github.com/xact-systems/xact/pkg/signal"
)

func prepared(t *testing.T, raw map[string]any) *config.Config {
	t.Helper()
	cfg, err := testutil.Prepare(raw)
	require.NoError(t, err)
	require.NoError(t, config.Denormalize(cfg))
	return cfg
}

func TestSingleProcessHaltsAtThreshold(t *testing.T) {
	cfg := prepared(t, testutil.CounterSystem(5))
	code, err := proc.Start(cfg, "localhost", "main")
	require.NoError(t, err)
	require.Equal(t, 0, code)
}

func TestUnknownProcess(t *testing.T) {
	cfg := prepared(t, testutil.CounterSystem(5))
	_, err := proc.Start(cfg, "localhost", "phantom")
	require.Error(t, err)
}

func TestUnknownEntryPointFailsStartup(t *testing.T) {
	raw := testutil.CounterSystem(5)
	raw["node"].(map[string]any)["counter"].(map[string]any)["functionality"] = map[string]any{
		"entry_point": "demo.does_not_exist",
	}
	cfg := prepared(t, raw)
	_, err := proc.Start(cfg, "localhost", "main")
	require.Error(t, err)
}

func TestTwoProcessGraphHalts(t *testing.T) {
	queue.ResetMemoryTransport()
	cfg := prepared(t, testutil.TwoProcessSystem(10))
	for class := range cfg.Queue {
		cfg.Queue[class] = "memory"
	}

	type result struct {
		code int
		err  error
	}
	results := make(map[string]result)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, idProcess := range []string{"producer", "consumer"} {
		wg.Add(1)
		go func(idProcess string) {
			defer wg.Done()
			code, err := proc.Start(cfg, "localhost", idProcess)
			mu.Lock()
			results[idProcess] = result{code: code, err: err}
			mu.Unlock()
		}(idProcess)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("graph did not halt")
	}

	require.NoError(t, results["consumer"].err)
	require.Equal(t, 0, results["consumer"].code)
	// The producer ends on its torn-down queue once the consumer halts.
	require.Error(t, results["producer"].err)
}

func TestNonRecoverableErrorStopsProcess(t *testing.T) {
	node.Register("test.always_fails", node.Functionality{
		Step: func(ctx *node.Context) error {
			return errors.New("deliberate failure")
		},
	})
	raw := testutil.CounterSystem(5)
	raw["node"].(map[string]any)["counter"].(map[string]any)["functionality"] = map[string]any{
		"entry_point": "test.always_fails",
	}
	cfg := prepared(t, raw)

	_, err := proc.Start(cfg, "localhost", "main")
	require.Error(t, err)
	var fatal *signal.NonRecoverableError
	require.True(t, errors.As(err, &fatal), "error = %v", err)
}

func TestResetAndRetryRestartsRun(t *testing.T) {
	// Shared across resets, unlike node state.
	var mu sync.Mutex
	retried := false
	resets := 0

	node.Register("test.flaky_counter", node.Functionality{
		Reset: func(ctx *node.Context) error {
			mu.Lock()
			resets++
			mu.Unlock()
			return nil
		},
		Step: func(ctx *node.Context) error {
			count := ctx.State["count"]
			if count == nil {
				count = int64(0)
			}
			n := count.(int64)
			mu.Lock()
			needRetry := !retried && n == 2
			if needRetry {
				retried = true
			}
			mu.Unlock()
			if needRetry {
				return &signal.ResetAndRetry{Reason: "transient glitch"}
			}
			ctx.Outputs.MustGet("output").Value = map[string]any{"count": n}
			ctx.State["count"] = n + 1
			return nil
		},
	})

	raw := testutil.CounterSystem(5)
	raw["node"].(map[string]any)["counter"].(map[string]any)["functionality"] = map[string]any{
		"entry_point": "test.flaky_counter",
	}
	cfg := prepared(t, raw)

	code, err := proc.Start(cfg, "localhost", "main")
	require.NoError(t, err)
	require.Equal(t, 0, code)

	mu.Lock()
	defer mu.Unlock()
	require.True(t, retried, "retry path never taken")
	require.Equal(t, 2, resets, "expected the initial reset plus one retry")
}

func TestFeedbackLoopRuns(t *testing.T) {
	// The monitor echoes each count back to the source over a feedback
	// edge; the source halts once it sees its own count come back.
	node.Register("test.echo_source", node.Functionality{
		Step: func(ctx *node.Context) error {
			if echoed, ok := ctx.Inputs.MustGet("echo").Value.(map[string]any); ok {
				if echoed["count"] == int64(3) {
					return &signal.Halt{}
				}
			}
			count := ctx.State["count"]
			if count == nil {
				count = int64(0)
			}
			n := count.(int64)
			ctx.Outputs.MustGet("output").Value = map[string]any{"count": n}
			ctx.State["count"] = n + 1
			return nil
		},
	})

	raw := map[string]any{
		"system": map[string]any{"id_system": "test_feedback"},
		"host": map[string]any{
			"localhost": map[string]any{"hostname": "localhost", "port_range": "41400-41410"},
		},
		"process": map[string]any{"main": map[string]any{"host": "localhost"}},
		"node": map[string]any{
			"source": map[string]any{
				"process": "main",
				"functionality": map[string]any{
					"entry_point": "test.echo_source",
				},
			},
			"monitor": map[string]any{
				"process": "main",
				"functionality": map[string]any{
					"entry_point": "demo.relay",
				},
			},
		},
		"edge": []any{
			map[string]any{
				"owner": "source", "data": "count_record",
				"src": "source.outputs.output", "dst": "monitor.inputs.input",
			},
			map[string]any{
				"owner": "monitor", "data": "count_record",
				"src": "monitor.outputs.output", "dst": "source.inputs.echo",
				"dirn": "feedback",
			},
		},
		"data": map[string]any{
			"count_record": []any{map[string]any{"count": "int64"}},
		},
	}
	cfg := prepared(t, raw)

	code, err := proc.Start(cfg, "localhost", "main")
	require.NoError(t, err)
	require.Equal(t, 0, code)
}
