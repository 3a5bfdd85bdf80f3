package main

import (
	"bytes"
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec selects how server -> client frames are encoded
type Codec int

const (
	CodecJSON    Codec = iota // text frames
	CodecMsgpack              // binary frames
)

// ParseCodec maps the ?enc= query value to a codec, defaulting to JSON
func ParseCodec(s string) Codec {
	switch s {
	case "msgpack", "mp", "bin":
		return CodecMsgpack
	default:
		return CodecJSON
	}
}

func (c Codec) String() string {
	if c == CodecMsgpack {
		return "msgpack"
	}
	return "json"
}

// Binary reports whether frames must be sent as websocket binary messages
func (c Codec) Binary() bool {
	return c == CodecMsgpack
}

// Encode serializes an envelope. MessagePack keys reuse the json tags so both
// encodings carry the same field names.
func (c Codec) Encode(msg interface{}) ([]byte, error) {
	if c != CodecMsgpack {
		return json.Marshal(msg)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeMsgpack is the receive side of CodecMsgpack
func DecodeMsgpack(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
