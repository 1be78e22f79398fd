package index

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestAddBagDuplicate(t *testing.T) {
	ix := New()
	if err := ix.AddBag("a.bag", []string{"/imu"}); err != nil {
		t.Fatalf("AddBag: %v", err)
	}
	if err := ix.AddBag("a.bag", []string{"/gps"}); !errors.Is(err, ErrDuplicateBag) {
		t.Fatalf("err = %v, want ErrDuplicateBag", err)
	}
	// Failed add must not touch the index.
	if ix.TopicCount("/gps") != 0 {
		t.Error("failed AddBag mutated index")
	}
}

func TestRemoveBagUnknown(t *testing.T) {
	ix := New()
	if _, _, err := ix.RemoveBag("nope.bag"); !errors.Is(err, ErrUnknownBag) {
		t.Fatalf("err = %v, want ErrUnknownBag", err)
	}
}

func TestSharedTopicCounts(t *testing.T) {
	ix := New()
	if err := ix.AddBag("a.bag", []string{"/imu", "/gps"}); err != nil {
		t.Fatal(err)
	}
	if err := ix.AddBag("b.bag", []string{"/imu", "/tf"}); err != nil {
		t.Fatal(err)
	}
	if got := ix.TopicCount("/imu"); got != 2 {
		t.Errorf("TopicCount(/imu) = %d, want 2", got)
	}
	if got := ix.TopicCount("/gps"); got != 1 {
		t.Errorf("TopicCount(/gps) = %d, want 1", got)
	}
	if got := ix.TopicCount("/unknown"); got != 0 {
		t.Errorf("TopicCount(/unknown) = %d, want 0", got)
	}

	removed, updated, err := ix.RemoveBag("a.bag")
	if err != nil {
		t.Fatalf("RemoveBag: %v", err)
	}
	// /gps had only a.bag; /imu persists via b.bag.
	if !reflect.DeepEqual(removed, []string{"/gps"}) {
		t.Errorf("removed = %v, want [/gps]", removed)
	}
	if !reflect.DeepEqual(updated, []string{"/imu"}) {
		t.Errorf("updated = %v, want [/imu]", updated)
	}
	if got := ix.TopicCount("/imu"); got != 1 {
		t.Errorf("TopicCount(/imu) = %d, want 1", got)
	}
}

func TestRemoveBagNeverLeavesEmptySets(t *testing.T) {
	ix := New()
	bags := []string{"a.bag", "b.bag", "c.bag"}
	for i, bag := range bags {
		topics := []string{"/shared", fmt.Sprintf("/only%d", i)}
		if err := ix.AddBag(bag, topics); err != nil {
			t.Fatal(err)
		}
	}
	for _, bag := range bags {
		if _, _, err := ix.RemoveBag(bag); err != nil {
			t.Fatal(err)
		}
		for topic, set := range ix.topicToBags {
			if len(set) == 0 {
				t.Errorf("topic %q left with empty set after removing %s", topic, bag)
			}
		}
	}
	if len(ix.topicToBags) != 0 || len(ix.bagToTopics) != 0 {
		t.Errorf("index not empty after removing all bags: %v / %v", ix.topicToBags, ix.bagToTopics)
	}
}

func TestMapsStayConsistent(t *testing.T) {
	ix := New()
	_ = ix.AddBag("a.bag", []string{"/imu", "/gps"})
	_ = ix.AddBag("b.bag", []string{"/imu"})
	_, _, _ = ix.RemoveBag("a.bag")

	// Every forward membership has a reverse record and vice versa.
	for topic, set := range ix.topicToBags {
		for bag := range set {
			found := false
			for _, tp := range ix.bagToTopics[bag] {
				if tp == topic {
					found = true
				}
			}
			if !found {
				t.Errorf("topicToBags[%q] has %q but reverse map does not", topic, bag)
			}
		}
	}
	for bag, topics := range ix.bagToTopics {
		for _, topic := range topics {
			if _, ok := ix.topicToBags[topic][bag]; !ok {
				t.Errorf("bagToTopics[%q] has %q but forward map does not", bag, topic)
			}
		}
	}
}

func TestAddBagDedupesTopics(t *testing.T) {
	ix := New()
	if err := ix.AddBag("a.bag", []string{"/imu", "/imu", "/gps"}); err != nil {
		t.Fatal(err)
	}
	if got := ix.Topics("a.bag"); len(got) != 2 {
		t.Errorf("Topics = %v, want 2 entries", got)
	}
	if got := ix.TopicCount("/imu"); got != 1 {
		t.Errorf("TopicCount(/imu) = %d, want 1", got)
	}
}

func TestAllTopicsAndSummary(t *testing.T) {
	ix := New()
	_ = ix.AddBag("a.bag", []string{"/imu", "/gps"})
	_ = ix.AddBag("b.bag", []string{"/imu"})

	if got := ix.AllTopics(); !reflect.DeepEqual(got, []string{"/gps", "/imu"}) {
		t.Errorf("AllTopics = %v", got)
	}
	want := map[string]int{"/gps": 1, "/imu": 2}
	if got := ix.Summary(); !reflect.DeepEqual(got, want) {
		t.Errorf("Summary = %v, want %v", got, want)
	}
}
