// Package output renders dupsweep run reports in several formats (pretty,
// plain, json, yaml, csv, paths) and prints live run events to a console.
//
// Formatters are looked up by name in a registry:
//
//	formatter, err := output.Get("pretty")
//	if err != nil {
//	    return err
//	}
//	var buf bytes.Buffer
//	if err := formatter.Format(&buf, report); err != nil {
//	    return err
//	}
package output

import (
	"bytes"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jamesainslie/dupsweep/pkg/dupsweep/logging"
	"github.com/jamesainslie/dupsweep/pkg/dupsweep/pipeline"
)

var logger = logging.Get("output")

// Formatter writes a report in one format.
type Formatter interface {
	Format(w *bytes.Buffer, r *pipeline.Report) error
}

// FormatterFactory creates a Formatter.
type FormatterFactory func() Formatter

// Registry maps names to formatter factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FormatterFactory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]FormatterFactory),
	}
}

// Register adds or replaces a formatter.
func (r *Registry) Register(name string, factory FormatterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// Get returns a new formatter by name.
func (r *Registry) Get(name string) (Formatter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter: %s", name)
	}
	return factory(), nil
}

// Available returns the registered names, sorted.
func (r *Registry) Available() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry holds the built-in formatters.
var DefaultRegistry = NewRegistry()

// Register adds a formatter to the default registry.
func Register(name string, factory FormatterFactory) {
	DefaultRegistry.Register(name, factory)
}

// Get returns a formatter from the default registry.
func Get(name string) (Formatter, error) {
	return DefaultRegistry.Get(name)
}

// Available returns the names in the default registry.
func Available() []string {
	return DefaultRegistry.Available()
}

// IsStructured reports whether a format is meant for machines. Structured
// output owns stdout, so listings and prompts go to stderr instead.
func IsStructured(name string) bool {
	switch name {
	case "json", "yaml", "csv", "paths":
		return true
	default:
		return false
	}
}

// formatDurationString formats a duration for machine output. Zero is empty.
func formatDurationString(d time.Duration) string {
	if d == 0 {
		return ""
	}
	return d.String()
}

// formatDuration formats a duration for people.
func formatDuration(d time.Duration) string {
	sec := d.Seconds()
	if sec < 1 {
		return fmt.Sprintf("%.0fms", sec*1000)
	}
	if sec < 60 {
		return fmt.Sprintf("%.1fs", sec)
	}
	minutes := int(sec) / 60
	seconds := int(sec) % 60
	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	hours := minutes / 60
	minutes %= 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
