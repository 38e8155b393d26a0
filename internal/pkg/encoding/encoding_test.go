package encoding

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID      string    `json:"id"`
	Count   int64     `json:"count"`
	Created time.Time `json:"created"`
	Tags    []string  `json:"tags,omitempty"`
}

func TestCodecs_PreserveFieldsAndTime(t *testing.T) {
	in := sample{
		ID:      "contact_0",
		Count:   42,
		Created: time.Date(2000, 1, 1, 12, 30, 0, 123456789, time.UTC),
		Tags:    []string{"a", "b"},
	}

	for _, c := range []Codec{Msgpack, CBOR} {
		t.Run(c.Name(), func(t *testing.T) {
			b, err := c.Marshal(in)
			require.NoError(t, err)

			var out sample
			require.NoError(t, c.Unmarshal(b, &out))
			assert.Equal(t, in.ID, out.ID)
			assert.Equal(t, in.Count, out.Count)
			assert.Equal(t, in.Tags, out.Tags)
			assert.True(t, in.Created.Equal(out.Created), "want %s got %s", in.Created, out.Created)
		})
	}
}

func TestByName(t *testing.T) {
	c, err := ByName("")
	require.NoError(t, err)
	assert.Equal(t, NameMsgpack, c.Name())

	c, err = ByName(NameCBOR)
	require.NoError(t, err)
	assert.Equal(t, NameCBOR, c.Name())

	_, err = ByName("protobuf")
	assert.Error(t, err)
}

func TestUnmarshal_GarbageFails(t *testing.T) {
	var out sample
	assert.Error(t, Msgpack.Unmarshal([]byte{0xc1}, &out))
	assert.Error(t, CBOR.Unmarshal([]byte{0xff, 0x00}, &out))
}

func TestCompressRoundTrip(t *testing.T) {
	src := []byte("contact_0 contact_0 contact_0 contact_0")
	packed, err := Compress(src)
	require.NoError(t, err)

	out, err := Decompress(packed)
	require.NoError(t, err)
	assert.Equal(t, src, out)

	_, err = Decompress([]byte("not zstd"))
	assert.Error(t, err)
}
