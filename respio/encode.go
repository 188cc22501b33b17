package respio

import (
	"strconv"
	"sync"
)

// Encoder accumulates a RESP multi-bulk request. Inline requests are never
// emitted — every command is a multi-bulk array of bulk strings.
// Arguments are collected first and the "*N\r\n" header is written once the
// final count is known, so callers never need to pre-compute argument
// counts the way a single-pass streaming encoder would require.
type Encoder struct {
	args [][]byte
	buf  []byte
}

var encoderPool = sync.Pool{
	New: func() interface{} { return &Encoder{args: make([][]byte, 0, 8), buf: make([]byte, 0, 256)} },
}

// GetEncoder returns a pooled, empty Encoder.
func GetEncoder() *Encoder {
	e := encoderPool.Get().(*Encoder)
	e.args = e.args[:0]
	e.buf = e.buf[:0]
	return e
}

// Put returns e to the pool. Callers must not retain e.Bytes() past Put.
func (e *Encoder) Put() {
	encoderPool.Put(e)
}

// AddBytes appends a bulk string argument.
func (e *Encoder) AddBytes(a []byte) {
	e.args = append(e.args, a)
}

// AddString appends a bulk string argument.
func (e *Encoder) AddString(a string) {
	e.args = append(e.args, []byte(a))
}

// AddInt appends a bulk string argument holding the decimal form of v.
func (e *Encoder) AddInt(v int64) {
	e.args = append(e.args, strconv.AppendInt(nil, v, 10))
}

// AddStrings appends multiple bulk string arguments in order.
func (e *Encoder) AddStrings(a []string) {
	for _, s := range a {
		e.AddString(s)
	}
}

// NumArgs reports the number of arguments accumulated so far.
func (e *Encoder) NumArgs() int { return len(e.args) }

// Bytes renders the accumulated arguments as a complete RESP multi-bulk
// request. Valid until the next GetEncoder call reuses the Encoder or Put
// returns it to the pool.
func (e *Encoder) Bytes() []byte {
	e.buf = append(e.buf, '*')
	e.buf = strconv.AppendUint(e.buf, uint64(len(e.args)), 10)
	e.buf = append(e.buf, '\r', '\n')
	for _, a := range e.args {
		e.buf = append(e.buf, '$')
		e.buf = strconv.AppendUint(e.buf, uint64(len(a)), 10)
		e.buf = append(e.buf, '\r', '\n')
		e.buf = append(e.buf, a...)
		e.buf = append(e.buf, '\r', '\n')
	}
	return e.buf
}
