package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResamplerOuterToInner(t *testing.T) {
	r, err := NewResampler(Ring{Name: "outer", Count: 46}, Ring{Name: "inner", Count: 12})
	require.NoError(t, err)

	assert.Equal(t, 19, r.SourceIndex(5))
	assert.Equal(t, 0, r.SourceIndex(0))
	assert.Equal(t, 42, r.SourceIndex(11))

	src := make([]int, 46)
	for i := range src {
		src[i] = i * 10
	}
	dst := make([]int, 12)
	Map(r, src, dst)
	assert.Equal(t, 190, dst[5])
	for j := range dst {
		assert.Equal(t, src[j*46/12], dst[j])
	}
}

func TestResamplerRejectsEmpty(t *testing.T) {
	_, err := NewResampler(Ring{Count: 46}, Ring{Count: 0})
	assert.Error(t, err)
}

func TestRingWrap(t *testing.T) {
	r := Ring{Count: 46}
	l, rr := r.Neighbors(0)
	assert.Equal(t, 45, l)
	assert.Equal(t, 1, rr)
	l, rr = r.Neighbors(45)
	assert.Equal(t, 44, l)
	assert.Equal(t, 0, rr)
	assert.Equal(t, 45, r.Index(-1))
	assert.Equal(t, 0, r.Index(46))
}
