// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package usage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxErrors is how many recent errors are kept per operation
	maxErrors = 10
	// maxArgsLen is the cut-off for recorded call arguments
	maxArgsLen = 100
)

// 📊 Well-known operation names
const (
	OpLoader   = "cloudforge.io.loader"
	OpExporter = "cloudforge.io.exporter"
	OpConfig   = "cloudforge.config.manager"
)

// ❌ ErrorRecord is one failed call
type ErrorRecord struct {
	Error     string    `yaml:"error"`
	Timestamp time.Time `yaml:"timestamp"`
	Args      string    `yaml:"args"`
}

// 📈 OperationStats accumulates calls of a single operation
type OperationStats struct {
	CallCount    int           `yaml:"call_count"`
	TotalTime    time.Duration `yaml:"total_time"`
	AvgTime      time.Duration `yaml:"avg_time"`
	SuccessCount int           `yaml:"success_count"`
	ErrorCount   int           `yaml:"error_count"`
	LastCalled   time.Time     `yaml:"last_called"`
	Errors       []ErrorRecord `yaml:"errors,omitempty"`
}

// SuccessRate is the share of successful calls in percent.
func (s OperationStats) SuccessRate() float64 {
	if s.CallCount == 0 {
		return 0
	}
	return float64(s.SuccessCount) / float64(s.CallCount) * 100
}

func (s OperationStats) clone() OperationStats {
	s.Errors = slices.Clone(s.Errors)
	return s
}

// 🎯 Collector records call statistics per operation name.
// A nil *Collector is valid and records nothing.
type Collector struct {
	mu    sync.Mutex
	stats map[string]*OperationStats
	now   func() time.Time
}

// 🏭 NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		stats: make(map[string]*OperationStats),
		now:   time.Now,
	}
}

// 🏃 Track runs fn and records its duration and outcome under op.
// fn's error is returned unchanged.
func (c *Collector) Track(ctx context.Context, op string, args any, fn func() error) error {
	if c == nil {
		return fn()
	}

	start := c.now()
	err := fn()
	c.record(ctx, op, args, c.now().Sub(start), err)
	return err
}

// TrackValue is Track for functions that also return a value.
func TrackValue[T any](ctx context.Context, c *Collector, op string, args any, fn func() (T, error)) (T, error) {
	var out T
	err := c.Track(ctx, op, args, func() error {
		var err error
		out, err = fn()
		return err
	})
	return out, err
}

func (c *Collector) record(ctx context.Context, op string, args any, elapsed time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.stats[op]
	if !ok {
		s = &OperationStats{}
		c.stats[op] = s
	}

	s.CallCount++
	s.TotalTime += elapsed
	s.AvgTime = s.TotalTime / time.Duration(s.CallCount)
	s.LastCalled = c.now()

	if err == nil {
		s.SuccessCount++
	} else {
		s.ErrorCount++
		s.Errors = append(s.Errors, ErrorRecord{
			Error:     err.Error(),
			Timestamp: s.LastCalled,
			Args:      truncate(fmt.Sprint(args), maxArgsLen),
		})
		if len(s.Errors) > maxErrors {
			s.Errors = slices.Clone(s.Errors[len(s.Errors)-maxErrors:])
		}
	}

	zerolog.Ctx(ctx).Debug().
		Str("operation", op).
		Dur("elapsed", elapsed).
		Bool("success", err == nil).
		Int("call_count", s.CallCount).
		Msg("recorded usage")
}

// 📸 Snapshot returns a deep copy of all statistics
func (c *Collector) Snapshot() map[string]OperationStats {
	out := make(map[string]OperationStats)
	if c == nil {
		return out
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for name, s := range c.stats {
		out[name] = s.clone()
	}
	return out
}

// Operations returns recorded operation names in sorted order.
func (c *Collector) Operations() []string {
	return slices.Sorted(maps.Keys(c.Snapshot()))
}

// 🧹 Reset clears every statistic
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.stats)
}

// replace swaps in previously persisted statistics
func (c *Collector) replace(stats map[string]OperationStats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.stats)
	for name, s := range stats {
		s := s.clone()
		c.stats[name] = &s
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the collector from context, nil if absent
func FromContext(ctx context.Context) *Collector {
	c, _ := ctx.Value(contextKey{}).(*Collector)
	return c
}

// 🎯 NewContext adds the collector to context
func NewContext(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}
