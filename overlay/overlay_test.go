package overlay_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/mirrorkit/mclone/overlay"
)

var _ = Describe("Directory", func() {
	var base string

	BeforeEach(func() {
		base, _ = os.MkdirTemp("", "overlay-test")
	})

	AfterEach(func() {
		os.RemoveAll(base)
	})

	It("commits a file atomically and leaves no tmp artifact", func() {
		dir, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		f, err := dir.CreateForWrite("a/b.bin")
		Expect(err).NotTo(HaveOccurred())
		_, err = f.Write([]byte("hello"))
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Commit()).To(Succeed())

		final := filepath.Join(base, "a/b.bin")
		Expect(final).To(BeAnExistingFile())
		data, _ := os.ReadFile(final)
		Expect(string(data)).To(Equal("hello"))

		matches, _ := filepath.Glob(filepath.Join(base, "a", "*.tmp"))
		Expect(matches).To(BeEmpty())
	})

	It("never exposes the final path if the writer crashes before commit", func() {
		dir, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		f, err := dir.CreateForWrite("never.bin")
		Expect(err).NotTo(HaveOccurred())
		_, _ = f.Write([]byte("partial"))
		Expect(f.Close()).To(Succeed()) // simulate crash-before-commit

		final := filepath.Join(base, "never.bin")
		Expect(final).NotTo(BeAnExistingFile())
		Expect(f.TmpPath).NotTo(BeAnExistingFile())
	})

	It("sweeps un-fused known files after the transfer completes", func() {
		stale := filepath.Join(base, "stale.txt")
		Expect(os.WriteFile(stale, []byte("x"), 0o644)).To(Succeed())

		dir, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		f, err := dir.CreateForWrite("kept.txt")
		Expect(err).NotTo(HaveOccurred())
		Expect(f.Commit()).To(Succeed())

		dir.Sweep()

		Expect(stale).NotTo(BeAnExistingFile())
		Expect(filepath.Join(base, "kept.txt")).To(BeAnExistingFile())
	})

	It("generates distinct run IDs across concurrently opened overlays on the same base", func() {
		d1, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())
		d2, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		Expect(d1.RunID).NotTo(Equal(d2.RunID))

		f1, err := d1.CreateForWrite("shared.bin")
		Expect(err).NotTo(HaveOccurred())
		f2, err := d2.CreateForWrite("shared.bin")
		Expect(err).NotTo(HaveOccurred())

		Expect(f1.TmpPath).NotTo(Equal(f2.TmpPath))
		Expect(f1.Close()).To(Succeed())
		Expect(f2.Close()).To(Succeed())
	})

	It("removes orphaned tmp files from a prior run on Open", func() {
		orphan := filepath.Join(base, "orphan.bin.deadbeef.tmp")
		Expect(os.WriteFile(orphan, []byte("x"), 0o644)).To(Succeed())

		_, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		Expect(orphan).NotTo(BeAnExistingFile())
	})

	It("lets TryFuse mark a pre-existing file as fused without rewriting it", func() {
		existing := filepath.Join(base, "already.bin")
		Expect(os.WriteFile(existing, []byte("unchanged"), 0o644)).To(Succeed())

		dir, err := overlay.Open(base)
		Expect(err).NotTo(HaveOccurred())

		fused, err := dir.TryFuse("already.bin")
		Expect(err).NotTo(HaveOccurred())
		Expect(fused).To(BeTrue())

		dir.Sweep()
		Expect(existing).To(BeAnExistingFile())
	})
})
