package prediction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return epoch.Add(-time.Duration(n) * 24 * time.Hour) }

func TestUsageRate(t *testing.T) {
	tests := []struct {
		name     string
		created  time.Time
		initial  int
		current  int
		expected float64
	}{
		{"history", daysAgo(100), 0, 4100, 41},
		{"initial offset", daysAgo(10), 50000, 50500, 50},
		{"exactly seven days uses default", daysAgo(7), 0, 700, DefaultDailyRate},
		{"eight days uses history", daysAgo(8), 0, 800, 100},
		{"no distance", daysAgo(200), 1000, 1000, DefaultDailyRate},
		{"created today", epoch, 0, 300, DefaultDailyRate},
		{"partial day floors", daysAgo(10).Add(-23 * time.Hour), 0, 1000, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, UsageRate(tt.created, tt.initial, tt.current, epoch), 1e-9)
		})
	}
	assert.InDelta(t, 41.0959, DefaultDailyRate, 1e-3)
}

func TestResolveBaseline_Milestone(t *testing.T) {
	tests := []struct {
		current, interval, expected int
	}{
		{10200, 5000, 15000},
		{10000, 5000, 15000},
		{0, 5000, 5000},
		{4100, 5000, 5000},
		{1, 80000, 80000},
		{79999, 80000, 80000},
	}
	for _, tt := range tests {
		b := ResolveBaseline(nil, tt.current, tt.interval)
		assert.Equal(t, tt.expected, b.NextDue, "current=%d interval=%d", tt.current, tt.interval)
		assert.Equal(t, ConfidenceMilestone, b.Confidence)
		assert.False(t, b.FromHistory)
		assert.Greater(t, b.NextDue, tt.current)
		assert.Zero(t, b.NextDue%tt.interval)
	}
}

func TestResolveBaseline_History(t *testing.T) {
	b := ResolveBaseline(&models.ServiceRecord{MileageAtService: 4000}, 4100, 5000)
	assert.Equal(t, 9000, b.NextDue)
	assert.Equal(t, ConfidenceHistory, b.Confidence)
	assert.True(t, b.FromHistory)

	// A service far in the past still anchors the baseline, even if overdue.
	b = ResolveBaseline(&models.ServiceRecord{MileageAtService: 1000}, 20000, 5000)
	assert.Equal(t, 6000, b.NextDue)
}

func TestProject(t *testing.T) {
	p := Project(5000, 4100, 41, epoch)
	assert.Equal(t, 900, p.RemainingKm)
	assert.InDelta(t, 21.95, p.Days, 0.01)
	assert.WithinDuration(t, epoch.Add(time.Duration(p.Days*float64(24*time.Hour))), p.Date, time.Second)
	assert.WithinDuration(t, epoch.AddDate(0, 0, 22), p.Date, 2*time.Hour)
	assert.False(t, p.Overdue())

	t.Run("overdue clamps to now", func(t *testing.T) {
		p := Project(6000, 20000, 50, epoch)
		assert.Equal(t, -14000, p.RemainingKm)
		assert.Zero(t, p.Days)
		assert.True(t, p.Date.Equal(epoch))
		assert.True(t, p.Overdue())
	})

	t.Run("zero rate uses fallback horizon", func(t *testing.T) {
		p := Project(5000, 1000, 0, epoch)
		assert.Equal(t, float64(NoUsageDays), p.Days)
		assert.Equal(t, epoch.AddDate(0, 0, NoUsageDays), p.Date)
	})

	t.Run("tiny rate is capped", func(t *testing.T) {
		p := Project(80000, 1, 0.0001, epoch)
		assert.Equal(t, float64(MaxProjectionDays), p.Days)
		assert.True(t, p.Date.After(epoch))
	})
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, 7, r.Len())
	km, ok := r.Interval(models.ServiceTimingBelt)
	require.True(t, ok)
	assert.Equal(t, 80000, km)
	_, ok = r.Interval("wipers")
	assert.False(t, ok)

	types := r.Types()
	assert.IsIncreasing(t, types)
	types[0] = "mutated"
	assert.NotEqual(t, "mutated", r.Types()[0], "Types must return a copy")
}

func TestNewRegistry_Validation(t *testing.T) {
	_, err := NewRegistry(nil)
	assert.Error(t, err)
	_, err = NewRegistry(map[string]int{"oil_change": 0})
	assert.Error(t, err)
	_, err = NewRegistry(map[string]int{" ": 100})
	assert.Error(t, err)

	src := map[string]int{"oil_change": 5000}
	r, err := NewRegistry(src)
	require.NoError(t, err)
	src["oil_change"] = 1
	km, _ := r.Interval("oil_change")
	assert.Equal(t, 5000, km, "registry must not alias the input map")
}

func TestRegistryWithOverrides(t *testing.T) {
	r, err := RegistryWithOverrides(map[string]int{"oil_change": 7500, "wipers": 15000})
	require.NoError(t, err)
	km, _ := r.Interval("oil_change")
	assert.Equal(t, 7500, km)
	km, _ = r.Interval("wipers")
	assert.Equal(t, 15000, km)
	assert.Equal(t, 8, r.Len())

	_, err = RegistryWithOverrides(map[string]int{"battery": -1})
	assert.Error(t, err)
}
