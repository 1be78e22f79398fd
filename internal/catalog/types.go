package catalog

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rose-bag/rose/internal/rostime"
)

// Status is the lifecycle state of a loaded bag.
type Status string

const (
	StatusIdle    Status = "IDLE"
	StatusSuccess Status = "SUCCESS"
	StatusError   Status = "ERROR"
)

// Metadata is the immutable load-time description of a bag.
type Metadata struct {
	InitialRange rostime.Range
	SizeBytes    int64
	Topics       []string
	// Types maps topic name to message type.
	Types map[string]string
}

// Entry is a read-only view of one loaded bag. The catalog owns the backing
// state; entries handed to collaborators are copies.
type Entry struct {
	Path            string
	Metadata        Metadata
	CurrentRange    rostime.Range
	OutputPath      string
	Status          Status
	Elapsed         time.Duration
	SizeAfterFilter int64
	SelectedTopics  []string
}

// FilterConfig is the derived per-bag filter request: the entry's current
// window plus its selected topics intersected with the topics it actually
// contains.
type FilterConfig struct {
	Window rostime.Range
	Topics []string
}

// bagState is the mutable record behind an Entry.
type bagState struct {
	path            string
	meta            Metadata
	topicSet        map[string]struct{}
	currentRange    rostime.Range
	outputPath      string
	status          Status
	elapsed         time.Duration
	sizeAfterFilter int64
	selected        map[string]struct{}
}

func (b *bagState) snapshot() Entry {
	meta := b.meta
	meta.Topics = append([]string(nil), b.meta.Topics...)
	meta.Types = make(map[string]string, len(b.meta.Types))
	for k, v := range b.meta.Types {
		meta.Types[k] = v
	}
	selected := make([]string, 0, len(b.selected))
	for topic := range b.selected {
		selected = append(selected, topic)
	}
	sort.Strings(selected)
	return Entry{
		Path:            b.path,
		Metadata:        meta,
		CurrentRange:    b.currentRange,
		OutputPath:      b.outputPath,
		Status:          b.status,
		Elapsed:         b.elapsed,
		SizeAfterFilter: b.sizeAfterFilter,
		SelectedTopics:  selected,
	}
}

func (b *bagState) filterConfig() FilterConfig {
	topics := make([]string, 0, len(b.selected))
	for topic := range b.selected {
		if _, ok := b.topicSet[topic]; ok {
			topics = append(topics, topic)
		}
	}
	sort.Strings(topics)
	return FilterConfig{Window: b.currentRange, Topics: topics}
}

// DefaultOutputPath is "<stem>_filtered<ext>" next to the input bag.
func DefaultOutputPath(path string) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+"_filtered"+ext)
}

// FormatSize renders a byte count with a B/KB/MB/GB unit.
func FormatSize(n int64) string {
	size := float64(n)
	for _, unit := range []string{"B", "KB", "MB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f%s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2fGB", size)
}
