package config

import (
	"sync"
	"sync/atomic"
	"time"
)

const defaultSnapshotInterval = time.Hour

var (
	snapshotInterval          atomic.Value
	snapshotIntervalListeners []chan time.Duration
	listenersMu               sync.Mutex
)

func init() {
	snapshotInterval.Store(defaultSnapshotInterval)
}

func SetBetweenTime() {
	cfg := GetConfig()
	setSnapshotInterval(calculateSnapshotInterval(cfg))
}

// CalculateBetweenTime converts a timer into a duration, enforcing a one second floor.
func CalculateBetweenTime(timer Timer) time.Duration {
	intervalMs := CalculateTimerMilliseconds(timer)

	minInterval := uint64(1000)
	if intervalMs < minInterval {
		intervalMs = minInterval
	}

	return time.Duration(intervalMs) * time.Millisecond
}

func CalculateTimerMilliseconds(timer Timer) uint64 {
	// Calculate total duration in milliseconds
	return uint64(timer.Days)*24*60*60*1000 +
		uint64(timer.Hours)*60*60*1000 +
		uint64(timer.Minutes)*60*1000 +
		uint64(timer.Seconds)*1000
}

func GetSnapshotInterval() time.Duration {
	return snapshotInterval.Load().(time.Duration)
}

// SnapshotIntervalUpdates returns a channel that carries the current snapshot
// interval immediately and every later change. The snapshot routine reschedules
// its ticker off this channel.
func SnapshotIntervalUpdates() <-chan time.Duration {
	ch := make(chan time.Duration, 1)
	listenersMu.Lock()
	snapshotIntervalListeners = append(snapshotIntervalListeners, ch)
	listenersMu.Unlock()

	ch <- GetSnapshotInterval()
	return ch
}

func setSnapshotInterval(interval time.Duration) {
	if interval <= 0 {
		interval = defaultSnapshotInterval
	}

	current := GetSnapshotInterval()
	if current == interval {
		return
	}

	snapshotInterval.Store(interval)

	listenersMu.Lock()
	defer listenersMu.Unlock()
	for _, ch := range snapshotIntervalListeners {
		select {
		case ch <- interval:
		default:
		}
	}
}

func calculateSnapshotInterval(cfg Config) time.Duration {
	timer := cfg.Snapshots.SnapshotTimer
	if timer.Days == 0 && timer.Hours == 0 && timer.Minutes == 0 && timer.Seconds == 0 {
		return defaultSnapshotInterval
	}
	return CalculateBetweenTime(timer)
}
