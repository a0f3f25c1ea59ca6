// Package health reports whether the storefront's dependencies answer.
package health

import (
	"context"
	"fmt"
	"sort"
	"time"
)

type CheckFunc func(ctx context.Context) error

type Checker struct {
	timeout time.Duration
	checks  map[string]CheckFunc
}

func NewChecker(timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{timeout: timeout, checks: make(map[string]CheckFunc)}
}

// Add registers a named dependency check.
func (c *Checker) Add(name string, fn CheckFunc) *Checker {
	c.checks[name] = fn
	return c
}

// Results runs every check and maps each name to "ok" or its error.
func (c *Checker) Results(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	out := make(map[string]string, len(c.checks))
	healthy := true
	for _, name := range c.names() {
		if err := c.checks[name](ctx); err != nil {
			out[name] = err.Error()
			healthy = false
			continue
		}
		out[name] = "ok"
	}
	return out, healthy
}

// Check returns the first failing dependency.
func (c *Checker) Check(ctx context.Context) error {
	results, ok := c.Results(ctx)
	if ok {
		return nil
	}
	for _, name := range c.names() {
		if results[name] != "ok" {
			return fmt.Errorf("%s: %s", name, results[name])
		}
	}
	return nil
}

func (c *Checker) names() []string {
	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
