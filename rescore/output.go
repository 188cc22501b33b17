package rescore

import (
	"fmt"

	"github.com/pascaldekloe/redis/v2/respio"
)

// verbOutput holds the verb and argument vector common to every concrete
// Output below. Embedding it spares each decoder type from re-implementing
// Encode.
type verbOutput struct {
	verb string
	args []any // string, []byte, or int64
}

func (o *verbOutput) Encode(e *respio.Encoder) {
	e.AddString(o.verb)
	for _, a := range o.args {
		switch v := a.(type) {
		case string:
			e.AddString(v)
		case []byte:
			e.AddBytes(v)
		case int64:
			e.AddInt(v)
		case []string:
			e.AddStrings(v)
		default:
			panic(fmt.Sprintf("rescore: unsupported argument type %T", a))
		}
	}
}

// OKOutput decodes a "+OK" simple-string reply, e.g. SET, SELECT.
type OKOutput struct {
	verbOutput
}

// NewOKOutput builds an Output for a command whose successful reply is the
// simple string OK.
func NewOKOutput(verb string, args ...any) *OKOutput {
	return &OKOutput{verbOutput{verb: verb, args: args}}
}

func (o *OKOutput) Reset() {}

func (o *OKOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type == respio.SimpleString && v.Str == "OK" {
		return true, nil
	}
	return true, fmt.Errorf("want simple string OK, got %v %q", v.Type, v.Str)
}

// StatusOutput decodes any simple-string reply, capturing it verbatim. Used
// for PING ("+PONG") and similar handshake commands.
type StatusOutput struct {
	verbOutput
	Status string
}

// NewStatusOutput builds an Output accepting any simple-string reply.
func NewStatusOutput(verb string, args ...any) *StatusOutput {
	return &StatusOutput{verbOutput: verbOutput{verb: verb, args: args}}
}

func (o *StatusOutput) Reset() { o.Status = "" }

func (o *StatusOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type != respio.SimpleString {
		return true, fmt.Errorf("want simple string, got %v", v.Type)
	}
	o.Status = v.Str
	return true, nil
}

// IntegerOutput decodes a ":" integer reply, e.g. DEL, INCR, PUBLISH.
type IntegerOutput struct {
	verbOutput
	Int int64
}

// NewIntegerOutput builds an Output for a command replying with an integer.
func NewIntegerOutput(verb string, args ...any) *IntegerOutput {
	return &IntegerOutput{verbOutput: verbOutput{verb: verb, args: args}}
}

func (o *IntegerOutput) Reset() { o.Int = 0 }

func (o *IntegerOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type != respio.Integer {
		return true, fmt.Errorf("want integer, got %v", v.Type)
	}
	o.Int = v.Int
	return true, nil
}

// BulkOutput decodes a "$" bulk-string reply, e.g. GET, LPOP. Null is
// surfaced via Null, not as an error.
type BulkOutput struct {
	verbOutput
	Bytes []byte
	Null  bool
}

// NewBulkOutput builds an Output for a command replying with a bulk string.
func NewBulkOutput(verb string, args ...any) *BulkOutput {
	return &BulkOutput{verbOutput: verbOutput{verb: verb, args: args}}
}

func (o *BulkOutput) Reset() { o.Bytes = nil; o.Null = false }

func (o *BulkOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type != respio.Bulk {
		return true, fmt.Errorf("want bulk string, got %v", v.Type)
	}
	o.Null = v.BulkNull
	o.Bytes = v.Bulk
	return true, nil
}

// SubscribeAckOutput decodes a subscribe/unsubscribe confirmation array:
// [verb, channel, count]. One channel per command, mirroring the wire
// shape the server actually emits per channel acknowledged.
type SubscribeAckOutput struct {
	verbOutput
	Count int64
}

// NewSubscribeAckOutput builds an Output for SUBSCRIBE, PSUBSCRIBE,
// UNSUBSCRIBE, or PUNSUBSCRIBE against a single channel or pattern.
func NewSubscribeAckOutput(verb, channel string) *SubscribeAckOutput {
	return &SubscribeAckOutput{verbOutput: verbOutput{verb: verb, args: []any{channel}}}
}

func (o *SubscribeAckOutput) Reset() { o.Count = 0 }

func (o *SubscribeAckOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type != respio.Array || len(v.Array) != 3 {
		return true, fmt.Errorf("want 3-element subscribe ack array, got %v", v.Type)
	}
	if v.Array[2].Type != respio.Integer {
		return true, fmt.Errorf("want integer subscriber count, got %v", v.Array[2].Type)
	}
	o.Count = v.Array[2].Int
	return true, nil
}

// ArrayOutput decodes a "*" array of bulk strings, e.g. LRANGE, MGET. Array
// elements that are themselves null bulk strings appear as nil entries.
type ArrayOutput struct {
	verbOutput
	Items [][]byte
	Null  bool
}

// NewArrayOutput builds an Output for a command replying with an array of
// bulk strings.
func NewArrayOutput(verb string, args ...any) *ArrayOutput {
	return &ArrayOutput{verbOutput: verbOutput{verb: verb, args: args}}
}

func (o *ArrayOutput) Reset() { o.Items = nil; o.Null = false }

func (o *ArrayOutput) Feed(v respio.Value) (bool, error) {
	if v.Type == respio.Error {
		return true, v.ServerError()
	}
	if v.Type != respio.Array {
		return true, fmt.Errorf("want array, got %v", v.Type)
	}
	if v.ArrayNull {
		o.Null = true
		return true, nil
	}
	items := make([][]byte, len(v.Array))
	for i, elem := range v.Array {
		if elem.Type != respio.Bulk {
			return true, fmt.Errorf("want bulk string array element, got %v", elem.Type)
		}
		items[i] = elem.Bulk
	}
	o.Items = items
	return true, nil
}
