package sync

import (
	"context"
	"fmt"
	"sync"
)

const (
	hashEntriesPerChannel = 200
)

// StripedChannel consistently maps a key space to a set of channels. Values
// sent with the same key are received in order from the same channel.
type StripedChannel[T any] struct {
	channels  []chan T
	hashRing  *ring[int]
	closeFunc sync.Once
}

// NewStripedChannel returns a new StripedChannel with a static number of
// channels, each buffering up to queueSize values.
func NewStripedChannel[T any](count, queueSize uint) *StripedChannel[T] {
	if count == 0 {
		count = 1
	}

	channels := make([]chan T, count)
	ringEntries := make(map[string]int)
	for i := range channels {
		channels[i] = make(chan T, queueSize)
		ringEntries[fmt.Sprintf("chan%d", i)] = i
	}

	return &StripedChannel[T]{
		channels: channels,
		hashRing: newRing(ringEntries, hashEntriesPerChannel),
	}
}

// GetChannels returns the set of all receiver channels.
func (c *StripedChannel[T]) GetChannels() []<-chan T {
	receivers := make([]<-chan T, len(c.channels))
	for i, channel := range c.channels {
		receivers[i] = channel
	}
	return receivers
}

// Send sends the value to the channel that maps to the key. It is non-blocking
// and returns whether the value was put on the channel.
func (c *StripedChannel[T]) Send(key string, value T) bool {
	select {
	case c.channels[c.hashRing.shard(key)] <- value:
		return true
	default:
		return false
	}
}

// BlockingSend waits until the value is put on the channel for key, or ctx is
// done.
func (c *StripedChannel[T]) BlockingSend(ctx context.Context, key string, value T) error {
	select {
	case c.channels[c.hashRing.shard(key)] <- value:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close closes all underlying channels. Nothing may be sent afterwards.
func (c *StripedChannel[T]) Close() {
	c.closeFunc.Do(func() {
		for _, channel := range c.channels {
			close(channel)
		}
	})
}
