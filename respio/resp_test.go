package respio

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readReply(t *testing.T, wire string) Value {
	t.Helper()
	v, err := ReadReply(bufio.NewReader(strings.NewReader(wire)))
	require.NoError(t, err)
	return v
}

func TestReadReplySimpleString(t *testing.T) {
	v := readReply(t, "+OK\r\n")
	assert.Equal(t, SimpleString, v.Type)
	assert.Equal(t, "OK", v.Str)
}

func TestReadReplyError(t *testing.T) {
	v := readReply(t, "-WRONGTYPE Operation against a key\r\n")
	assert.True(t, v.IsError())
	assert.Equal(t, "WRONGTYPE", v.ServerError().Prefix())
}

func TestReadReplyInteger(t *testing.T) {
	v := readReply(t, ":-42\r\n")
	assert.Equal(t, Integer, v.Type)
	assert.EqualValues(t, -42, v.Int)
}

func TestReadReplyBulk(t *testing.T) {
	v := readReply(t, "$5\r\nhello\r\n")
	assert.Equal(t, Bulk, v.Type)
	assert.False(t, v.BulkNull)
	assert.Equal(t, "hello", string(v.Bulk))
}

func TestReadReplyNullBulk(t *testing.T) {
	v := readReply(t, "$-1\r\n")
	assert.True(t, v.BulkNull)
	assert.Nil(t, v.Bulk)
}

func TestReadReplyArray(t *testing.T) {
	v := readReply(t, "*2\r\n$3\r\nfoo\r\n:7\r\n")
	require.Equal(t, Array, v.Type)
	require.Len(t, v.Array, 2)
	assert.Equal(t, "foo", string(v.Array[0].Bulk))
	assert.EqualValues(t, 7, v.Array[1].Int)
}

func TestReadReplyNestedArray(t *testing.T) {
	v := readReply(t, "*1\r\n*1\r\n+ok\r\n")
	require.Len(t, v.Array, 1)
	require.Len(t, v.Array[0].Array, 1)
	assert.Equal(t, "ok", v.Array[0].Array[0].Str)
}

func TestReadReplyNullArray(t *testing.T) {
	v := readReply(t, "*-1\r\n")
	assert.True(t, v.ArrayNull)
}

func TestReadReplyUnknownTypeByte(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("X\r\n+OK\r\n"))
	_, err := ReadReply(r)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrProtocol)
}

func TestParseInt(t *testing.T) {
	cases := map[string]int64{
		"0": 0, "7": 7, "-7": -7, "123": 123, "-123": -123, "": 0,
	}
	for s, want := range cases {
		assert.Equal(t, want, ParseInt([]byte(s)), "input %q", s)
	}
}

func TestEncoderBytes(t *testing.T) {
	e := GetEncoder()
	defer e.Put()
	e.AddString("SET")
	e.AddString("key")
	e.AddBytes([]byte("value"))
	assert.Equal(t, "*3\r\n$3\r\nSET\r\n$3\r\nkey\r\n$5\r\nvalue\r\n", string(e.Bytes()))
}

func TestEncoderAddInt(t *testing.T) {
	e := GetEncoder()
	defer e.Put()
	e.AddString("EXPIRE")
	e.AddString("key")
	e.AddInt(-5)
	assert.Equal(t, "*3\r\n$6\r\nEXPIRE\r\n$3\r\nkey\r\n$2\r\n-5\r\n", string(e.Bytes()))
}

func TestServerErrorPrefixNoSpace(t *testing.T) {
	assert.Equal(t, "ERR", ServerError("ERR").Prefix())
}
