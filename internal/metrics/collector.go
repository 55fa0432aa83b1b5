package metrics

import (
	"sync"
	"time"

	"media-explorer/internal/logging"
)

// StatsProvider reports the current state of the thumbnail cache.
type StatsProvider interface {
	Stats() (count int, bytes int64, err error)
}

// Collector periodically copies cache statistics into gauges.
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. It is safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	count, size, err := c.statsProvider.Stats()
	if err != nil {
		logging.Warn("Failed to collect cache stats: %v", err)
		return
	}

	ThumbnailCacheCount.Set(float64(count))
	ThumbnailCacheSize.Set(float64(size))

	logging.Debug("Metrics collected: thumbnails=%d, bytes=%d", count, size)
}
