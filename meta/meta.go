package meta

import "github.com/mirrorkit/mclone/cmn/cos"

// SnapshotMeta is the canonical snapshot item (spec.md §3). Size and
// LastModified use pointer-to-value so "absent" is distinguishable from
// the zero value; Checksum/ChecksumMethod likewise.
type SnapshotMeta struct {
	Key SnapshotKey

	// Size is the object's byte length; nil means unknown.
	Size *uint64

	// LastModified is seconds since epoch; nil means unknown.
	LastModified *uint64

	// ChecksumMethod/Checksum travel together: if Checksum is set,
	// ChecksumMethod must be too (enforced by the adapters that set
	// them, not re-validated here).
	ChecksumMethod *cos.ChecksumMethod
	Checksum       *string

	// Force re-transfers this item even if metadata matches.
	Force bool

	// ForceLast defers this item until after every non-ForceLast item
	// has been scheduled (priority.md §3: ForceLast ⇒ Priority < 0).
	ForceLast bool

	// Priority orders execution: higher first. ForceLast items carry
	// -1 regardless of any explicitly assigned priority.
	Priority int
}

func (m SnapshotMeta) GetKey() SnapshotKey { return m.Key }

// WithForceLast returns a copy of m with ForceLast set and Priority
// pinned to -1, per spec.md §3's invariant `force_last ⇒ priority < 0`.
func (m SnapshotMeta) WithForceLast() SnapshotMeta {
	m.ForceLast = true
	m.Force = true
	m.Priority = -1
	return m
}

// AsPath demotes a SnapshotMeta down to its key-only SnapshotPath form.
func (m SnapshotMeta) AsPath() SnapshotPath {
	return SnapshotPath{Key: m.Key}
}

func compareUint64(a, b *uint64) bool {
	if a == nil || b == nil {
		return true // missing on either side never signals a difference
	}
	return *a == *b
}

func compareChecksumMethod(a, b *cos.ChecksumMethod) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func compareString(a, b *string) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

// Diff implements spec.md §3's conservative diff rule: the source item
// differs from the target item iff Force/ForceLast is set on either
// side, or any metadata field present on both sides disagrees. A field
// missing on either side never by itself signals a difference.
func Diff(source, target SnapshotMeta) bool {
	if source.Force || source.ForceLast || target.Force || target.ForceLast {
		return true
	}
	if !compareUint64(source.Size, target.Size) {
		return true
	}
	if !compareUint64(source.LastModified, target.LastModified) {
		return true
	}
	if !compareChecksumMethod(source.ChecksumMethod, target.ChecksumMethod) {
		return true
	}
	if !compareString(source.Checksum, target.Checksum) {
		return true
	}
	return false
}
