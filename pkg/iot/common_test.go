package iot

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"liyu1981.xyz/solar-telemetry-service/pkg/store"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// GetTestIOT builds an IOT over a fresh store of kind sharing one clock.
func GetTestIOT(t *testing.T, kind string, limiter *RateLimiterStore) (*IOT, *testClock) {
	clock := &testClock{now: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}

	s, err := store.Open(kind, store.WithClock(clock.Now))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	iotInstance := New(s, limiter)
	iotInstance.Clock = clock.Now
	return iotInstance, clock
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}
