package bufpool_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marmos91/gridstore/pkg/bufpool"
)

func TestGetReturnsRequestedLength(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantCap int
	}{
		{"small", 1024, bufpool.SmallSize},
		{"small boundary", bufpool.SmallSize, bufpool.SmallSize},
		{"medium", bufpool.SmallSize + 1, bufpool.MediumSize},
		{"default chunk size", 256 << 10, bufpool.MediumSize},
		{"large", 512 << 10, bufpool.LargeSize},
		{"oversized", bufpool.LargeSize + 1, bufpool.LargeSize + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := bufpool.Get(tt.size)
			assert.Len(t, buf, tt.size)
			assert.Equal(t, tt.wantCap, cap(buf))
			bufpool.Put(buf)
		})
	}
}

func TestPoolReusesBuffers(t *testing.T) {
	p := bufpool.NewPool()

	buf := p.Get(1000)
	buf[0] = 0xAB
	p.Put(buf)

	// sync.Pool gives no reuse guarantee, but the slice must always come
	// back with the requested length and a class-sized capacity.
	again := p.Get(2000)
	assert.Len(t, again, 2000)
	assert.Equal(t, bufpool.SmallSize, cap(again))
	p.Put(again)
}

func TestPutIgnoresForeignBuffers(t *testing.T) {
	p := bufpool.NewPool()

	p.Put(nil)
	p.Put(make([]byte, 777))

	buf := p.Get(10)
	assert.Len(t, buf, 10)
	p.Put(buf)
}

func TestOversizedNotPooled(t *testing.T) {
	p := bufpool.NewPool()

	buf := p.Get(bufpool.LargeSize * 2)
	assert.Len(t, buf, bufpool.LargeSize*2)
	p.Put(buf)
}
