package events

import (
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_NewestFirst(t *testing.T) {
	r := NewRing(0)
	r.now = func() time.Time { return time.UnixMilli(1700000000123) }

	first := r.Record(Event{Source: "webhook", IncomingText: "cake"})
	r.Record(Event{Source: "webhook", IncomingText: "bread"})

	assert.Regexp(t, regexp.MustCompile(`^evt_1700000000123_.{6}$`), first.ID)
	assert.Equal(t, time.UnixMilli(1700000000123), first.CreatedAt)

	listed := r.List()
	require.Len(t, listed, 2)
	assert.Equal(t, "bread", listed[0].IncomingText)
	assert.Equal(t, "cake", listed[1].IncomingText)
}

func TestRing_Bounded(t *testing.T) {
	r := NewRing(DefaultCapacity)
	for i := 0; i < DefaultCapacity+10; i++ {
		r.Record(Event{IncomingText: fmt.Sprintf("msg %d", i)})
	}

	listed := r.List()
	require.Len(t, listed, DefaultCapacity)
	assert.Equal(t, fmt.Sprintf("msg %d", DefaultCapacity+9), listed[0].IncomingText)
	assert.Equal(t, "msg 10", listed[DefaultCapacity-1].IncomingText)
}

func TestRing_ListIsCopy(t *testing.T) {
	r := NewRing(3)
	r.Record(Event{IncomingText: "a"})

	listed := r.List()
	listed[0].IncomingText = "changed"
	assert.Equal(t, "a", r.List()[0].IncomingText)

	r.Reset()
	assert.Empty(t, r.List())
}

func TestRing_Concurrent(t *testing.T) {
	r := NewRing(10)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Record(Event{IncomingText: "x"})
		}()
	}
	wg.Wait()
	assert.Len(t, r.List(), 10)
}
