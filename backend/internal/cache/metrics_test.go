package cache

import (
	"sync"
	"testing"
)

func TestCacheMetrics(t *testing.T) {
	metrics := NewCacheMetrics()

	if metrics.GetStats().Hits != 0 {
		t.Errorf("Expected 0 hits, got %d", metrics.GetStats().Hits)
	}

	metrics.RecordHit()
	metrics.RecordHit()
	metrics.RecordMiss()
	metrics.RecordSet()
	metrics.RecordDelete()
	metrics.RecordError()

	want := CacheStats{Hits: 2, Misses: 1, Sets: 1, Deletes: 1, Errors: 1}
	if got := metrics.GetStats(); got != want {
		t.Errorf("GetStats() = %+v, want %+v", got, want)
	}

	metrics.Reset()
	if got := metrics.GetStats(); got != (CacheStats{}) {
		t.Errorf("Expected metrics to be reset, got %+v", got)
	}
}

func TestCacheMetricsHitRate(t *testing.T) {
	metrics := NewCacheMetrics()

	if metrics.HitRate() != 0.0 {
		t.Errorf("Expected 0%% hit rate with no operations, got %.2f%%", metrics.HitRate())
	}

	metrics.RecordHit()
	metrics.RecordHit()
	if metrics.HitRate() != 100.0 {
		t.Errorf("Expected 100%% hit rate, got %.2f%%", metrics.HitRate())
	}

	metrics.RecordMiss()
	if rate := metrics.HitRate(); rate < 66.5 || rate > 66.8 {
		t.Errorf("Expected hit rate around 66.67%%, got %.2f%%", rate)
	}
}

func TestCacheMetricsConcurrency(t *testing.T) {
	metrics := NewCacheMetrics()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				metrics.RecordHit()
				metrics.RecordMiss()
				metrics.RecordSet()
			}
		}()
	}
	wg.Wait()

	stats := metrics.GetStats()
	if stats.Hits != 1000 || stats.Misses != 1000 || stats.Sets != 1000 {
		t.Errorf("Expected 1000 of each, got %+v", stats)
	}
}
