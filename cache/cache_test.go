package cache

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmere/avro"
)

type countingMetrics struct {
	mu         sync.Mutex
	hits, miss int
}

func (m *countingMetrics) Hit()  { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *countingMetrics) Miss() { m.mu.Lock(); m.miss++; m.mu.Unlock() }

func TestCacheParsesOnceAndHitsAfter(t *testing.T) {
	m := &countingMetrics{}
	c := New(NewLRU(8), m)
	data := []byte(`"string"`)

	s1, err := c.ParseSchema(context.Background(), data)
	require.NoError(t, err)
	s2, err := c.ParseSchema(context.Background(), data)
	require.NoError(t, err)

	assert.Same(t, s1, s2)
	assert.Equal(t, 1, m.miss)
	assert.Equal(t, 1, m.hits)
}

func TestCacheCollapsesConcurrentMisses(t *testing.T) {
	c := New(NewLRU(8), nil)
	data := []byte(`{"type": "record", "name": "R", "fields": [{"name": "x", "type": "int"}]}`)

	var wg sync.WaitGroup
	results := make([]interface{}, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := c.ParseSchema(context.Background(), data)
			require.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()
	for i := 1; i < len(results); i++ {
		assert.Same(t, results[0], results[i])
	}
}

func TestCacheDistinguishesByContent(t *testing.T) {
	c := New(NewLRU(8), nil)
	s1, err := c.ParseSchema(context.Background(), []byte(`"string"`))
	require.NoError(t, err)
	s2, err := c.ParseSchema(context.Background(), []byte(`"long"`))
	require.NoError(t, err)
	assert.Equal(t, avro.String, s1.(*avro.PrimitiveSchema).Kind)
	assert.Equal(t, avro.Long, s2.(*avro.PrimitiveSchema).Kind)
}

func TestCachePropagatesParseError(t *testing.T) {
	c := New(NewLRU(8), nil)
	_, err := c.ParseSchema(context.Background(), []byte(`"not-a-type"`))
	assert.Error(t, err)
}

func TestOpenSelectsBackendBySpec(t *testing.T) {
	for _, spec := range []string{"", "lru"} {
		c, err := Open(spec, nil)
		require.NoError(t, err, spec)
		_, ok := c.backend.(*LRUBackend)
		assert.True(t, ok, spec)
	}

	c, err := Open("redis://localhost:6379", nil)
	require.NoError(t, err)
	_, ok := c.backend.(*RedisBackend)
	assert.True(t, ok)

	_, err = Open("not-a-url-scheme://wat", nil)
	assert.Error(t, err)
}
