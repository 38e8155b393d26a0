// Package encoding centralizes payload serialization for the legacy store and
// the kind decoders. A payload written with one Codec must be read with the
// same Codec. Payload structs carry json tags only; both codecs honour them.
//
// Thread Safety: every Codec and the zstd helpers are safe for concurrent use.
package encoding

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec converts entity payload structs to and from bytes.
type Codec interface {
	Name() string
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

const (
	NameMsgpack = "msgpack"
	NameCBOR    = "cbor"
)

// Msgpack is the default payload codec.
var Msgpack Codec = msgpackCodec{}

// CBOR encodes times as RFC 3339 strings with nanoseconds so they survive a
// round trip without losing precision.
var CBOR Codec = newCBORCodec()

// ByName returns the codec registered under name.
func ByName(name string) (Codec, error) {
	switch name {
	case "", NameMsgpack:
		return Msgpack, nil
	case NameCBOR:
		return CBOR, nil
	default:
		return nil, fmt.Errorf("encoding: unknown codec %q", name)
	}
}

type msgpackCodec struct{}

func (msgpackCodec) Name() string { return NameMsgpack }

func (msgpackCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Unmarshal(data []byte, v interface{}) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	dec.UseLooseInterfaceDecoding(true)
	return dec.Decode(v)
}

type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() cborCodec {
	enc, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("encoding: cbor enc mode: %v", err))
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("encoding: cbor dec mode: %v", err))
	}
	return cborCodec{enc: enc, dec: dec}
}

func (cborCodec) Name() string { return NameCBOR }

func (c cborCodec) Marshal(v interface{}) ([]byte, error) {
	return c.enc.Marshal(v)
}

func (c cborCodec) Unmarshal(data []byte, v interface{}) error {
	return c.dec.Unmarshal(data, v)
}
