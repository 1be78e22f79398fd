// Package catalog is the session state machine: it owns the set of loaded
// bags, keeps the topic index consistent with it, tracks the shared topic
// selection, and notifies observers after every successful mutation.
//
// Locking discipline: mutating operations hold the write lock for their
// full duration; reads take the read lock. Codec calls never happen under
// the lock. Observer callbacks fire after the lock is released, at most
// once per operation, so observers may re-enter with reads but must
// re-fetch rather than cache across notifications.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/rose-bag/rose/internal/codec"
	"github.com/rose-bag/rose/internal/index"
	"github.com/rose-bag/rose/internal/rostime"
)

var (
	// ErrAlreadyLoaded reports a Load for a path that is already in the catalog.
	ErrAlreadyLoaded = errors.New("bag already loaded")
	// ErrNotLoaded reports an operation on a path that is not in the catalog.
	ErrNotLoaded = errors.New("bag not loaded")
	// ErrSelectionMode reports a selection call that does not match the
	// catalog's selection mode.
	ErrSelectionMode = errors.New("operation not valid in this selection mode")
	// ErrTopicNotInBag reports a per-entry selection of a topic the bag lacks.
	ErrTopicNotInBag = errors.New("topic not in bag")
)

// SelectionMode determines how topic selection propagates.
type SelectionMode int

const (
	// SharedSelection keeps one selected-topics set that propagates to
	// every loaded bag (single-select semantics).
	SharedSelection SelectionMode = iota
	// PerEntrySelection keeps an independent selection per bag.
	PerEntrySelection
)

// Option configures a Catalog.
type Option func(*Catalog)

// WithSelectionMode sets the selection strategy. Default is SharedSelection.
func WithSelectionMode(mode SelectionMode) Option {
	return func(c *Catalog) { c.mode = mode }
}

// Catalog coordinates loaded bags for one filtering session.
type Catalog struct {
	codec codec.Codec
	mode  SelectionMode

	mu        sync.RWMutex
	bags      map[string]*bagState
	index     *index.Index
	selected  map[string]struct{}
	observers []func()
}

// New returns an empty catalog backed by the given codec.
func New(c codec.Codec, opts ...Option) *Catalog {
	cat := &Catalog{
		codec:    c,
		bags:     make(map[string]*bagState),
		index:    index.New(),
		selected: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(cat)
	}
	return cat
}

// Mode returns the catalog's selection mode.
func (c *Catalog) Mode() SelectionMode { return c.mode }

// Subscribe registers a change observer. Observers are invoked after each
// successful mutation, outside the catalog lock, with no payload: they pull
// fresh state through the read operations.
func (c *Catalog) Subscribe(fn func()) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// notify snapshots the observer list under the read lock and invokes each
// callback with no lock held.
func (c *Catalog) notify() {
	c.mu.RLock()
	observers := append([]func(){}, c.observers...)
	c.mu.RUnlock()
	for _, fn := range observers {
		fn()
	}
}

func canonical(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// Load inspects the bag at path and adds it to the catalog. The codec call
// happens before any lock is taken; a codec failure leaves the catalog
// untouched. Loading clears the shared topic selection.
func (c *Catalog) Load(ctx context.Context, path string) error {
	id := canonical(path)

	c.mu.RLock()
	_, dup := c.bags[id]
	c.mu.RUnlock()
	if dup {
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	}

	info, err := c.codec.Inspect(ctx, id)
	if err != nil {
		return err
	}
	var size int64
	if fi, err := os.Stat(id); err == nil {
		size = fi.Size()
	}

	topics := append([]string(nil), info.Topics...)
	sort.Strings(topics)
	topicSet := make(map[string]struct{}, len(topics))
	for _, topic := range topics {
		topicSet[topic] = struct{}{}
	}
	types := make(map[string]string, len(info.Types))
	for k, v := range info.Types {
		types[k] = v
	}

	c.mu.Lock()
	if _, dup := c.bags[id]; dup {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrAlreadyLoaded, id)
	}
	if err := c.index.AddBag(id, topics); err != nil {
		c.mu.Unlock()
		return err
	}
	c.bags[id] = &bagState{
		path: id,
		meta: Metadata{
			InitialRange: info.TimeRange,
			SizeBytes:    size,
			Topics:       topics,
			Types:        types,
		},
		topicSet:        topicSet,
		currentRange:    info.TimeRange,
		outputPath:      DefaultOutputPath(id),
		status:          StatusIdle,
		sizeAfterFilter: size,
		selected:        make(map[string]struct{}),
	}
	c.clearSelectionLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Unload removes the bag at path. Clears the shared topic selection.
func (c *Catalog) Unload(path string) error {
	id := canonical(path)

	c.mu.Lock()
	if _, ok := c.bags[id]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	if _, _, err := c.index.RemoveBag(id); err != nil {
		c.mu.Unlock()
		return err
	}
	delete(c.bags, id)
	c.clearSelectionLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// Clear empties the catalog and the topic selection. Never fails.
func (c *Catalog) Clear() {
	c.mu.Lock()
	c.bags = make(map[string]*bagState)
	c.index = index.New()
	c.selected = make(map[string]struct{})
	c.mu.Unlock()

	c.notify()
}

// clearSelectionLocked resets the shared selection and every entry's copy.
func (c *Catalog) clearSelectionLocked() {
	c.selected = make(map[string]struct{})
	for _, bag := range c.bags {
		bag.selected = make(map[string]struct{})
	}
}

// propagateSelectionLocked copies the shared set into every entry. Entries
// keep their own copy so a bag missing a topic simply ignores it when its
// filter config is derived.
func (c *Catalog) propagateSelectionLocked() {
	for _, bag := range c.bags {
		sel := make(map[string]struct{}, len(c.selected))
		for topic := range c.selected {
			sel[topic] = struct{}{}
		}
		bag.selected = sel
	}
}

// SelectTopic adds topic to the shared selection. SharedSelection mode only.
func (c *Catalog) SelectTopic(topic string) error {
	return c.mutateSharedSelection(func() {
		c.selected[topic] = struct{}{}
	})
}

// DeselectTopic removes topic from the shared selection. SharedSelection
// mode only.
func (c *Catalog) DeselectTopic(topic string) error {
	return c.mutateSharedSelection(func() {
		delete(c.selected, topic)
	})
}

// ClearSelection empties the shared selection. SharedSelection mode only.
func (c *Catalog) ClearSelection() error {
	return c.mutateSharedSelection(func() {
		c.selected = make(map[string]struct{})
	})
}

func (c *Catalog) mutateSharedSelection(mutate func()) error {
	if c.mode != SharedSelection {
		return ErrSelectionMode
	}
	c.mu.Lock()
	mutate()
	c.propagateSelectionLocked()
	c.mu.Unlock()

	c.notify()
	return nil
}

// SelectEntryTopic selects a topic on one bag. PerEntrySelection mode only;
// the topic must exist in the bag.
func (c *Catalog) SelectEntryTopic(path, topic string) error {
	if c.mode != PerEntrySelection {
		return ErrSelectionMode
	}
	return c.withBag(path, func(bag *bagState) error {
		if _, ok := bag.topicSet[topic]; !ok {
			return fmt.Errorf("%w: %s", ErrTopicNotInBag, topic)
		}
		bag.selected[topic] = struct{}{}
		return nil
	})
}

// DeselectEntryTopic deselects a topic on one bag. PerEntrySelection mode
// only. Deselecting an absent topic is a no-op.
func (c *Catalog) DeselectEntryTopic(path, topic string) error {
	if c.mode != PerEntrySelection {
		return ErrSelectionMode
	}
	return c.withBag(path, func(bag *bagState) error {
		delete(bag.selected, topic)
		return nil
	})
}

// withBag runs a mutation against one entry under the write lock and fires
// the change notification on success.
func (c *Catalog) withBag(path string, fn func(*bagState) error) error {
	id := canonical(path)

	c.mu.Lock()
	bag, ok := c.bags[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	if err := fn(bag); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()

	c.notify()
	return nil
}

// SetTimeRange stores the filter window for a bag. Range validation against
// the bag's own bounds is the caller's job (rostime.Parse + rostime.Clamp).
func (c *Catalog) SetTimeRange(path string, r rostime.Range) error {
	return c.withBag(path, func(bag *bagState) error {
		bag.currentRange = r
		return nil
	})
}

// SetOutputFile sets the output file for a bag. Relative names resolve next
// to the input bag.
func (c *Catalog) SetOutputFile(path, name string) error {
	return c.withBag(path, func(bag *bagState) error {
		if filepath.IsAbs(name) {
			bag.outputPath = name
		} else {
			bag.outputPath = filepath.Join(filepath.Dir(bag.path), name)
		}
		return nil
	})
}

// SetStatus sets a bag's status.
func (c *Catalog) SetStatus(path string, st Status) error {
	return c.withBag(path, func(bag *bagState) error {
		bag.status = st
		return nil
	})
}

// SetElapsed records the wall-clock duration of a bag's last filter job.
func (c *Catalog) SetElapsed(path string, d time.Duration) error {
	return c.withBag(path, func(bag *bagState) error {
		bag.elapsed = d
		return nil
	})
}

// SetSizeAfterFilter records the size of a bag's filtered output.
func (c *Catalog) SetSizeAfterFilter(path string, n int64) error {
	return c.withBag(path, func(bag *bagState) error {
		bag.sizeAfterFilter = n
		return nil
	})
}

// Count returns the number of loaded bags.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bags)
}

// Single returns the only loaded bag. Defined only when Count() == 1.
func (c *Catalog) Single() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.bags) != 1 {
		return Entry{}, false
	}
	for _, bag := range c.bags {
		return bag.snapshot(), true
	}
	return Entry{}, false
}

// Bag returns a snapshot of the entry at path.
func (c *Catalog) Bag(path string) (Entry, bool) {
	id := canonical(path)
	c.mu.RLock()
	defer c.mu.RUnlock()
	bag, ok := c.bags[id]
	if !ok {
		return Entry{}, false
	}
	return bag.snapshot(), true
}

// Bags returns snapshots of every loaded bag, sorted by path.
func (c *Catalog) Bags() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries := make([]Entry, 0, len(c.bags))
	for _, bag := range c.bags {
		entries = append(entries, bag.snapshot())
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// TopicSummary returns topic -> number of loaded bags containing it.
func (c *Catalog) TopicSummary() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.Summary()
}

// TopicCount returns the number of loaded bags containing topic.
func (c *Catalog) TopicCount(topic string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.TopicCount(topic)
}

// SelectedTopics returns the shared selection, sorted.
func (c *Catalog) SelectedTopics() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	topics := make([]string, 0, len(c.selected))
	for topic := range c.selected {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// FilterConfig derives the filter request for one bag from its current
// window and its selected topics.
func (c *Catalog) FilterConfig(path string) (FilterConfig, error) {
	id := canonical(path)
	c.mu.RLock()
	defer c.mu.RUnlock()
	bag, ok := c.bags[id]
	if !ok {
		return FilterConfig{}, fmt.Errorf("%w: %s", ErrNotLoaded, id)
	}
	return bag.filterConfig(), nil
}
