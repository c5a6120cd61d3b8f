package contentstore

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		root string
		s    *Store
	)

	BeforeEach(func() {
		var err error
		root, err = os.MkdirTemp("", "contentstore-")
		Expect(err).NotTo(HaveOccurred())
		s, err = New(root)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(root)
	})

	Describe("Put", func() {
		It("is idempotent for identical payloads (S1: deduplicated download)", func() {
			payload := []byte("some cube payload")

			hash1, path1, err := s.Put("cubes", "zip", payload)
			Expect(err).NotTo(HaveOccurred())

			hash2, path2, err := s.Put("cubes", "zip", payload)
			Expect(err).NotTo(HaveOccurred())

			Expect(hash1).To(Equal(hash2))
			Expect(path1).To(Equal(path2))

			entries, err := os.ReadDir(filepath.Dir(path1))
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(1), "exactly one physical file per hash")
		})

		It("fans out by two-level hash prefix", func() {
			hash, path, err := s.Put("cubes", "zip", []byte("x"))
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(ContainSubstring(root))
			Expect(path).To(Equal(filepath.Join(root, "cubes", string(hash)[:2], string(hash)+".zip")))
		})
	})

	Describe("Verify", func() {
		It("reports a match for untouched content", func() {
			payload := []byte("metadata json")
			hash, path, err := s.Put("metadata", "json", payload)
			Expect(err).NotTo(HaveOccurred())

			ok, got, err := s.Verify(path, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(hash))
		})

		It("detects corruption (S6: truncated active file)", func() {
			payload := []byte("0123456789")
			hash, path, err := s.Put("cubes", "zip", payload)
			Expect(err).NotTo(HaveOccurred())

			Expect(os.WriteFile(path, payload[:3], 0o644)).To(Succeed())

			ok, got, err := s.Verify(path, hash)
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(got).NotTo(Equal(hash))
		})

		It("reports no match when the file is absent", func() {
			ok, got, err := s.Verify(root+"/does/not/exist", "abc123")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
			Expect(got).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		It("is a no-op for an already-absent file", func() {
			Expect(s.Delete(root + "/nope")).To(Succeed())
		})
	})
})
