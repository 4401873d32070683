package sync

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripedChannel_HappyPath(t *testing.T) {
	c := NewStripedChannel[int](32, 256)

	channels := c.GetChannels()
	require.Equal(t, 32, len(channels))

	results := make([]map[int]int, len(channels))

	var wg sync.WaitGroup
	worker := func(id int, c <-chan int) {
		defer wg.Done()

		for val := range c {
			results[id][val]++
		}
	}

	for i, channel := range channels {
		wg.Add(1)
		results[i] = make(map[int]int)
		go worker(i, channel)
	}

	for i := 0; i < 256; i++ {
		for j := 0; j < 10; j++ {
			assert.True(t, c.Send(fmt.Sprintf("project-%d", i), i))
		}
	}

	c.Close()

	wg.Wait()

	aggregated := make(map[int]int)
	for _, result := range results {
		for k, v := range result {
			// A key is only ever delivered to a single channel
			_, exists := aggregated[k]
			assert.False(t, exists)
			aggregated[k] = v
		}
	}

	assert.Equal(t, 256, len(aggregated))
	for _, v := range aggregated {
		assert.Equal(t, 10, v)
	}
}

func TestStripedChannel_Ordering(t *testing.T) {
	c := NewStripedChannel[int](4, 100)
	for i := 0; i < 100; i++ {
		require.True(t, c.Send("project-1", i))
	}
	c.Close()

	var received []int
	for _, channel := range c.GetChannels() {
		for val := range channel {
			received = append(received, val)
		}
	}

	require.Len(t, received, 100)
	for i, val := range received {
		assert.Equal(t, i, val)
	}
}

func TestStripedChannel_FullQueue(t *testing.T) {
	c := NewStripedChannel[int](32, 256)

	full := "project-1"
	other := ""
	for i := 0; i < 1000; i++ {
		candidate := fmt.Sprintf("project-%d", i+2)
		if c.hashRing.shard(candidate) != c.hashRing.shard(full) {
			other = candidate
			break
		}
	}
	require.NotEmpty(t, other)

	for i := 0; i < 256; i++ {
		assert.True(t, c.Send(full, 1))
	}

	assert.False(t, c.Send(full, 1))
	assert.True(t, c.Send(other, 2))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Equal(t, context.DeadlineExceeded, c.BlockingSend(ctx, full, 1))
	assert.NoError(t, c.BlockingSend(context.Background(), other, 3))
}
