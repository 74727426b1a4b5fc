package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Answer   string   `json:"answer"`
	Sources  []string `json:"sources"`
	Verified bool     `json:"verified"`
}

func TestMarshalUnmarshal(t *testing.T) {
	in := sample{Answer: "Wash hands for 20 seconds.", Sources: []string{"4.2", "4.3"}, Verified: true}

	data, err := Marshal(in)
	require.NoError(t, err)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestEncoderDecoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).Encode(sample{Answer: "a"}))

	var out sample
	require.NoError(t, NewDecoder(strings.NewReader(buf.String())).Decode(&out))
	assert.Equal(t, "a", out.Answer)
}
