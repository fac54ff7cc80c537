package xact_test

import (
	"context"
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mirrorkit/mclone/cmn"
	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/meta"
	"github.com/mirrorkit/mclone/xact"
)

var _ = Describe("Engine", func() {
	var mission *core.Mission

	BeforeEach(func() {
		mission = &core.Mission{Progress: core.NopProgress{}}
	})

	It("adds source-only keys, deletes target-only keys, and updates differing keys", func() {
		sizeSrcB := uint64(2)
		source := &fakeSource{items: []meta.SnapshotMeta{
			{Key: mustKey("a")},
			{Key: mustKey("b"), Size: &sizeSrcB},
			{Key: mustKey("c")},
		}}
		sizeB := uint64(1)
		target := &fakeTarget{items: []meta.SnapshotMeta{
			{Key: mustKey("b"), Size: &sizeB}, // differs from source's size 2 -> update
			{Key: mustKey("d")},               // target-only -> delete
		}}

		engine := xact.New(source, target, cmn.DefaultConfig())
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(ConsistOf("a", "b", "c"))
		Expect(target.deleteKeys()).To(ConsistOf("d"))
	})

	It("skips the delete phase when NoDelete is set", func() {
		source := &fakeSource{items: []meta.SnapshotMeta{{Key: mustKey("a")}}}
		target := &fakeTarget{items: []meta.SnapshotMeta{{Key: mustKey("stale")}}}

		cfg := cmn.DefaultConfig()
		cfg.NoDelete = true
		engine := xact.New(source, target, cfg)
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(ConsistOf("a"))
		Expect(target.deleteKeys()).To(BeEmpty())
	})

	It("stops after plan generation on DryRun without touching the target", func() {
		source := &fakeSource{items: []meta.SnapshotMeta{{Key: mustKey("a")}}}
		target := &fakeTarget{items: []meta.SnapshotMeta{{Key: mustKey("stale")}}}

		cfg := cmn.DefaultConfig()
		cfg.DryRun = true
		engine := xact.New(source, target, cfg)
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(BeEmpty())
		Expect(target.deleteKeys()).To(BeEmpty())
	})

	It("forces every source item to transfer when ForceAll is set, even if metadata matches", func() {
		source := &fakeSource{items: []meta.SnapshotMeta{{Key: mustKey("same")}}}
		target := &fakeTarget{items: []meta.SnapshotMeta{{Key: mustKey("same")}}}

		cfg := cmn.DefaultConfig()
		cfg.ForceAll = true
		engine := xact.New(source, target, cfg)
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(ConsistOf("same"))
	})

	It("re-transfers a key whose checksum disagrees even though size and mtime match", func() {
		size := uint64(10)
		mtime := uint64(1000)
		sourceSum := "aaaa"
		targetSum := "bbbb"
		sha256 := cos.ChecksumSHA256

		source := &fakeSource{items: []meta.SnapshotMeta{
			{Key: mustKey("pkg"), Size: &size, LastModified: &mtime, ChecksumMethod: &sha256, Checksum: &sourceSum},
		}}
		target := &fakeTarget{items: []meta.SnapshotMeta{
			{Key: mustKey("pkg"), Size: &size, LastModified: &mtime, ChecksumMethod: &sha256, Checksum: &targetSum},
		}}

		engine := xact.New(source, target, cmn.DefaultConfig())
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(ConsistOf("pkg"))
	})

	It("never begins a force_last item's fetch before every higher-priority item's put has completed", func() {
		recorder := &orderingRecorder{}
		source := &orderingSource{
			items: []meta.SnapshotMeta{
				{Key: mustKey("pkg.tar"), Priority: 0},
				meta.SnapshotMeta{Key: mustKey("index.json")}.WithForceLast(),
			},
			recorder: recorder,
		}
		target := &orderingTarget{recorder: recorder}

		engine := xact.New(source, target, cmn.DefaultConfig())
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		trace := recorder.entries()
		putPkg := indexOf(trace, "put:pkg.tar")
		fetchIndex := indexOf(trace, "fetch:index.json")
		Expect(putPkg).To(BeNumerically(">=", 0))
		Expect(fetchIndex).To(BeNumerically(">=", 0))
		Expect(fetchIndex).To(BeNumerically(">", putPkg))
	})

	It("propagates a source enumerate failure instead of mirroring an empty snapshot", func() {
		source := &failingSource{snapshotErr: &cmn.ErrHTTPStatus{Code: 500, URL: "https://example.test/index"}}
		target := &fakeTarget{}

		engine := xact.New(source, target, cmn.DefaultConfig())
		Expect(engine.Transfer(context.Background(), mission)).To(HaveOccurred())
	})

	It("skips a single failed fetch without aborting the rest of the transfer", func() {
		items := make([]meta.SnapshotMeta, 0, 10)
		for i := 0; i < 10; i++ {
			items = append(items, meta.SnapshotMeta{Key: mustKey(fmt.Sprintf("item-%d", i))})
		}
		source := &failingSource{
			fakeSource: fakeSource{items: items},
			failGetKey: mustKey("item-3"),
			failGetErr: &cmn.ErrHTTPStatus{Code: 404, URL: "https://example.test/item-3"},
		}
		target := &fakeTarget{}

		engine := xact.New(source, target, cmn.DefaultConfig())
		Expect(engine.Transfer(context.Background(), mission)).To(Succeed())

		Expect(target.putKeys()).To(HaveLen(9))
		Expect(target.putKeys()).NotTo(ContainElement("item-3"))
	})
})

func indexOf(items []string, want string) int {
	for i, item := range items {
		if item == want {
			return i
		}
	}
	return -1
}
