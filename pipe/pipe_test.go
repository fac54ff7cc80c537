package pipe_test

import (
	"context"
	"os"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mirrorkit/mclone/cmn/cos"
	"github.com/mirrorkit/mclone/core"
	"github.com/mirrorkit/mclone/pipe"
)

var ctx = context.Background()

func testMission() *core.Mission {
	return &core.Mission{Progress: core.NopProgress{}}
}

var _ = Describe("FilterPipe", func() {
	It("drops keys matching any configured pattern and leaves Fetch untouched", func() {
		inner := newFakeBytePipe("a/one.whl", "a/one.tar.gz", "b/two.whl")
		f, err := pipe.NewFilterPipe(inner, []string{`\.tar\.gz$`})
		Expect(err).NotTo(HaveOccurred())

		items, err := f.Snapshot(ctx, testMission())
		Expect(err).NotTo(HaveOccurred())
		keys := make([]string, len(items))
		for i, it := range items {
			keys[i] = string(it.Key)
		}
		Expect(keys).To(ConsistOf("a/one.whl", "b/two.whl"))

		obj, err := f.GetObject(ctx, items[0], testMission())
		Expect(err).NotTo(HaveOccurred())
		defer obj.Close()
	})

	It("rejects an invalid pattern at construction", func() {
		inner := newFakeBytePipe("a")
		_, err := pipe.NewFilterPipe(inner, []string{"("})
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ChecksumPipe", func() {
	It("passes through objects with no declared checksum", func() {
		inner := newFakeBytePipe("a")
		cp := pipe.NewChecksumPipe(inner)
		items, _ := inner.Snapshot(ctx, testMission())
		obj, err := cp.GetObject(ctx, items[0], testMission())
		Expect(err).NotTo(HaveOccurred())
		obj.Close()
	})

	It("verifies a matching checksum and rewinds the stream", func() {
		inner := newFakeBytePipe("a")
		sum, _ := cos.Digest(cos.ChecksumSHA256, strings.NewReader("content-of-a"))
		inner.withChecksum("a", cos.ChecksumSHA256, sum)

		cp := pipe.NewChecksumPipe(inner)
		items, _ := inner.Snapshot(ctx, testMission())
		obj, err := cp.GetObject(ctx, items[0], testMission())
		Expect(err).NotTo(HaveOccurred())
		defer obj.Close()

		pos, err := obj.Seek(0, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(pos).To(Equal(int64(0)))
	})

	It("fails ChecksumMismatch on disagreement", func() {
		inner := newFakeBytePipe("a")
		bogus := "0000000000000000000000000000000000000000000000000000000000000000"
		inner.withChecksum("a", cos.ChecksumSHA256, bogus)

		cp := pipe.NewChecksumPipe(inner)
		items, _ := inner.Snapshot(ctx, testMission())
		_, err := cp.GetObject(ctx, items[0], testMission())
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("MergePipe", func() {
	It("prepends each child's prefix during Snapshot and dispatches Fetch by prefix", func() {
		left := newFakeBytePipe("x.txt")
		right := newFakeBytePipe("y.txt")
		m := pipe.NewMergePipe("left", left, "right", right)

		items, err := m.Snapshot(ctx, testMission())
		Expect(err).NotTo(HaveOccurred())
		keys := make([]string, len(items))
		for i, it := range items {
			keys[i] = string(it.Key)
		}
		Expect(keys).To(ConsistOf("left/x.txt", "right/y.txt"))

		for _, it := range items {
			obj, err := m.GetObject(ctx, it, testMission())
			Expect(err).NotTo(HaveOccurred())
			obj.Close()
		}
	})

	It("folds three children into a left-leaning tree via NewMerge", func() {
		a := newFakeBytePipe("a.txt")
		b := newFakeBytePipe("b.txt")
		c := newFakeBytePipe("c.txt")
		merged := pipe.NewMerge([]core.BytePipe{a, b, c}, []string{"a", "b", "c"})

		items, err := merged.Snapshot(ctx, testMission())
		Expect(err).NotTo(HaveOccurred())
		Expect(items).To(HaveLen(3))

		for _, it := range items {
			obj, err := merged.GetObject(ctx, it, testMission())
			Expect(err).NotTo(HaveOccurred())
			obj.Close()
		}
	})
})

var _ = Describe("IndexPipe", func() {
	It("inserts a synthetic listing key per directory and renders it on Fetch", func() {
		inner := newFakeBytePipe("pkgs/a/one.whl", "pkgs/b/two.whl", "readme.txt")
		bufferDir, err := os.MkdirTemp("", "index-pipe-buffer")
		Expect(err).NotTo(HaveOccurred())
		defer os.RemoveAll(bufferDir)

		ip := pipe.NewIndexPipe(inner, 4, bufferDir)
		items, err := ip.Snapshot(ctx, testMission())
		Expect(err).NotTo(HaveOccurred())

		var sentinels []string
		for _, it := range items {
			if hasSuffix(string(it.Key), "mirror_clone_list.html") {
				sentinels = append(sentinels, string(it.Key))
				Expect(it.Force).To(BeTrue())
				Expect(it.ForceLast).To(BeTrue())
			}
		}
		Expect(sentinels).To(ContainElement("mirror_clone_list.html"))
		Expect(sentinels).To(ContainElement("pkgs/mirror_clone_list.html"))

		for _, it := range items {
			if hasSuffix(string(it.Key), "mirror_clone_list.html") {
				obj, err := ip.GetObject(ctx, it, testMission())
				Expect(err).NotTo(HaveOccurred())
				Expect(obj.ContentType()).To(Equal("text/html"))
				obj.Close()
			}
		}
	})
})

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
