// Package index maintains the inverted topic->bags index used for multi-bag
// topic selection and live occurrence counts.
//
// The index is not internally synchronized; the catalog serializes access.
// Every mutation is all-or-nothing: the two internal maps are never left
// inconsistent, even when a call fails.
package index

import (
	"errors"
	"sort"
)

var (
	// ErrDuplicateBag reports an AddBag for an id already present.
	ErrDuplicateBag = errors.New("bag already indexed")
	// ErrUnknownBag reports a RemoveBag for an id that is not present.
	ErrUnknownBag = errors.New("bag not indexed")
)

// Index maps topics to the bags that contain them and back.
type Index struct {
	topicToBags map[string]map[string]struct{}
	bagToTopics map[string][]string
}

// New returns an empty index.
func New() *Index {
	return &Index{
		topicToBags: make(map[string]map[string]struct{}),
		bagToTopics: make(map[string][]string),
	}
}

// AddBag registers topics for a new bag id.
func (ix *Index) AddBag(bagID string, topics []string) error {
	if _, ok := ix.bagToTopics[bagID]; ok {
		return ErrDuplicateBag
	}
	// Dedupe so reverse entries stay one per topic.
	seen := make(map[string]struct{}, len(topics))
	list := make([]string, 0, len(topics))
	for _, topic := range topics {
		if _, dup := seen[topic]; dup {
			continue
		}
		seen[topic] = struct{}{}
		list = append(list, topic)
	}
	ix.bagToTopics[bagID] = list
	for _, topic := range list {
		set, ok := ix.topicToBags[topic]
		if !ok {
			set = make(map[string]struct{})
			ix.topicToBags[topic] = set
		}
		set[bagID] = struct{}{}
	}
	return nil
}

// RemoveBag removes a bag from every topic set. Topics whose set became
// empty are deleted from the index and reported in removed; topics that
// still have other bags are reported in updated.
func (ix *Index) RemoveBag(bagID string) (removed, updated []string, err error) {
	topics, ok := ix.bagToTopics[bagID]
	if !ok {
		return nil, nil, ErrUnknownBag
	}
	for _, topic := range topics {
		set := ix.topicToBags[topic]
		delete(set, bagID)
		if len(set) == 0 {
			delete(ix.topicToBags, topic)
			removed = append(removed, topic)
		} else {
			updated = append(updated, topic)
		}
	}
	delete(ix.bagToTopics, bagID)
	sort.Strings(removed)
	sort.Strings(updated)
	return removed, updated, nil
}

// TopicCount returns the number of bags currently containing topic.
func (ix *Index) TopicCount(topic string) int {
	return len(ix.topicToBags[topic])
}

// Topics returns the topic list recorded for a bag, or nil if unknown.
func (ix *Index) Topics(bagID string) []string {
	topics, ok := ix.bagToTopics[bagID]
	if !ok {
		return nil
	}
	return append([]string(nil), topics...)
}

// AllTopics returns every indexed topic, sorted.
func (ix *Index) AllTopics() []string {
	topics := make([]string, 0, len(ix.topicToBags))
	for topic := range ix.topicToBags {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Summary returns topic -> bag occurrence count for every indexed topic.
func (ix *Index) Summary() map[string]int {
	out := make(map[string]int, len(ix.topicToBags))
	for topic, set := range ix.topicToBags {
		out[topic] = len(set)
	}
	return out
}
