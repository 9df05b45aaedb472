package node

import (
	"fmt"

	"github.com/xact-systems/xact/pkg/signal"
)

// The built-in demo functionality mirrors what ships in examples/: a
// counter source, a halting limit sink, and a relay. They double as the
// reference implementations for the two functionality forms.
func init() {
	Register("demo.counter", Functionality{Step: counterStep})
	Register("demo.counter_coro", Functionality{Coro: counterCoro})
	Register("demo.limit", Functionality{Step: limitStep})
	Register("demo.relay", Functionality{Step: relayStep})
	Register("demo.noop", Functionality{})
}

// counterStep emits an incrementing count on the output port.
func counterStep(ctx *Context) error {
	count := toInt64(ctx.State["count"])
	ctx.Outputs.MustGet("output").Value = map[string]any{"count": count}
	ctx.State["count"] = count + 1
	return nil
}

// counterCoro is the coroutine form of the counter.
func counterCoro(ctx *Context, yield Yield) error {
	output := ctx.Outputs.MustGet("output")
	for count := int64(0); ; count++ {
		output.Value = map[string]any{"count": count}
		if err := yield(); err != nil {
			return err
		}
	}
}

// limitStep halts the run once the incoming count reaches the threshold
// from its config args.
func limitStep(ctx *Context) error {
	item, ok := ctx.Inputs.MustGet("input").Value.(map[string]any)
	if !ok {
		return fmt.Errorf("limit node expects a mapping with a count field")
	}
	count := toInt64(item["count"])
	threshold := toInt64(ctx.Cfg["threshold"])
	if threshold > 0 && count >= threshold {
		return &signal.Halt{}
	}
	return nil
}

// relayStep copies its input value to its output, if both ports exist.
func relayStep(ctx *Context) error {
	input := ctx.Inputs.Get("input")
	output := ctx.Outputs.Get("output")
	if input == nil || output == nil {
		return nil
	}
	output.Value = input.Value
	return nil
}

// toInt64 widens the integer forms that config parsing and msgpack
// decoding produce.
func toInt64(value any) int64 {
	switch typed := value.(type) {
	case int:
		return int64(typed)
	case int8:
		return int64(typed)
	case int16:
		return int64(typed)
	case int32:
		return int64(typed)
	case int64:
		return typed
	case uint8:
		return int64(typed)
	case uint16:
		return int64(typed)
	case uint32:
		return int64(typed)
	case uint64:
		return int64(typed)
	case float32:
		return int64(typed)
	case float64:
		return int64(typed)
	}
	return 0
}
