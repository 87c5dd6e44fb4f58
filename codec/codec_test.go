package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
	Rank  int      `json:"rank"`
}

func TestByName(t *testing.T) {
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{name: "json", want: "json", ok: true},
		{name: "go-json", want: "go-json", ok: true},
		{name: "msgpack", ok: false},
		{name: "", ok: false},
	}

	for _, tt := range tests {
		c, ok := ByName(tt.name)
		require.Equal(t, tt.ok, ok, "ByName(%q)", tt.name)
		if ok {
			assert.Equal(t, tt.want, c.Name())
		}
	}
}

func TestCodecsAreInterchangeable(t *testing.T) {
	in := samplePayload{
		URL:   "https://example.com/post",
		Title: "hello",
		Tags:  []string{"links", "user"},
		Rank:  3,
	}

	// Encode with one codec, decode with the other. Both speak plain JSON.
	for _, enc := range []Codec{JSON{}, GoJSON{}} {
		for _, dec := range []Codec{JSON{}, GoJSON{}} {
			b, err := enc.Marshal(in)
			require.NoError(t, err)

			var out samplePayload
			require.NoError(t, dec.Unmarshal(b, &out))
			assert.Equal(t, in, out, "%s -> %s", enc.Name(), dec.Name())
		}
	}
}

func TestMustMarshalNilCodecUsesDefault(t *testing.T) {
	b := MustMarshal(nil, map[string]int{"a": 1})
	assert.JSONEq(t, `{"a":1}`, string(b))
}
