package xact

import (
	"reflect"
	"testing"

	"github.com/mirrorkit/mclone/meta"
)

func key(s string) meta.SnapshotKey { return meta.SnapshotKey(s) }

func keys(items []meta.SnapshotMeta) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it.Key)
	}
	return out
}

func TestCanonicalizeSortsAndDedupes(t *testing.T) {
	items := []meta.SnapshotMeta{
		{Key: key("b")},
		{Key: key("a")},
		{Key: key("a")},
	}
	out, collisions := canonicalize(items)
	if collisions != 1 {
		t.Fatalf("expected 1 collision, got %d", collisions)
	}
	if !reflect.DeepEqual(keys(out), []string{"a", "b"}) {
		t.Fatalf("unexpected order: %v", keys(out))
	}
}

func TestClassifySplitsAddUpdateDelete(t *testing.T) {
	sizeSrcB := uint64(4)
	source := []meta.SnapshotMeta{{Key: key("a")}, {Key: key("b"), Size: &sizeSrcB}, {Key: key("c")}}
	sizeB := uint64(5)
	target := []meta.SnapshotMeta{{Key: key("b"), Size: &sizeB}, {Key: key("d")}}

	plan := classify(source, target)
	if plan.AddCount != 2 {
		t.Fatalf("expected 2 adds, got %d", plan.AddCount)
	}
	if plan.UpdateCount != 1 {
		t.Fatalf("expected 1 update, got %d", plan.UpdateCount)
	}
	if len(plan.Delete) != 1 || string(plan.Delete[0].Key) != "d" {
		t.Fatalf("unexpected delete set: %v", keys(plan.Delete))
	}
}

func TestClassifyOrdersByDescendingPriority(t *testing.T) {
	source := []meta.SnapshotMeta{
		{Key: key("low"), Priority: 0},
		{Key: key("high"), Priority: 10},
		{Key: key("mid"), Priority: 5},
	}
	plan := classify(source, nil)
	if got := keys(plan.Transfer); !reflect.DeepEqual(got, []string{"high", "mid", "low"}) {
		t.Fatalf("unexpected priority order: %v", got)
	}
}

func TestForceAloneTriggersUpdateDespiteMatchingMetadata(t *testing.T) {
	source := []meta.SnapshotMeta{{Key: key("a"), Force: true}}
	target := []meta.SnapshotMeta{{Key: key("a")}}

	plan := classify(source, target)
	if plan.UpdateCount != 1 {
		t.Fatalf("expected force to trigger an update, got %d updates", plan.UpdateCount)
	}
}
