package prediction

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// DefaultIntervals returns the service interval, in km, of each known
// maintenance type. The map is a fresh copy.
func DefaultIntervals() map[string]int {
	return map[string]int{
		models.ServiceOilChange:    5000,
		models.ServiceTireRotation: 10000,
		models.ServiceAirFilter:    20000,
		models.ServiceBrakeService: 20000,
		models.ServiceBattery:      30000,
		models.ServiceTimingBelt:   80000,
		models.ServiceOther:        10000,
	}
}

// Registry is an immutable maintenance type → interval table.
type Registry struct {
	intervals map[string]int
	types     []string
}

// NewRegistry validates intervals and freezes a copy of it.
func NewRegistry(intervals map[string]int) (*Registry, error) {
	if len(intervals) == 0 {
		return nil, fmt.Errorf("registry: no maintenance types")
	}
	r := &Registry{intervals: make(map[string]int, len(intervals))}
	for t, km := range intervals {
		t = strings.TrimSpace(t)
		if t == "" {
			return nil, fmt.Errorf("registry: empty maintenance type")
		}
		if km <= 0 {
			return nil, fmt.Errorf("registry: interval for %q must be positive, got %d", t, km)
		}
		r.intervals[t] = km
		r.types = append(r.types, t)
	}
	sort.Strings(r.types)
	return r, nil
}

// DefaultRegistry returns a registry over DefaultIntervals.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultIntervals())
	if err != nil {
		panic(err)
	}
	return r
}

// RegistryWithOverrides merges overrides on top of the defaults. Types not
// in the defaults are added.
func RegistryWithOverrides(overrides map[string]int) (*Registry, error) {
	merged := DefaultIntervals()
	for t, km := range overrides {
		merged[t] = km
	}
	return NewRegistry(merged)
}

// Interval returns the interval for t.
func (r *Registry) Interval(t string) (int, bool) {
	km, ok := r.intervals[t]
	return km, ok
}

// Types returns the registered types in a stable order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.types))
	copy(out, r.types)
	return out
}

// Len is the number of registered types.
func (r *Registry) Len() int { return len(r.types) }
