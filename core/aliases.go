package core

import "github.com/mirrorkit/mclone/meta"

// The pipe chain (spec.md §4.3–4.4) is built around one concrete
// snapshot-item shape, meta.SnapshotMeta — the "ownership-parametric
// source trait" design note (spec.md §9) realized concretely rather
// than with a second layer of generics, since Go lacks the Rust
// original's higher-kinded macro composition. Key-only adapters use
// meta.SnapshotPath.AsMeta() to promote into this shape.
type (
	MetaSnapshotStorage = SnapshotStorage[meta.SnapshotMeta]
	URLSourceStorage    = SourceStorage[meta.SnapshotMeta, TransferURL]
	ByteSourceStorage   = SourceStorage[meta.SnapshotMeta, ByteObject]
	MetaTargetStorage   = TargetStorage[meta.SnapshotMeta, ByteObject]
)

// Source bundles the two capabilities every C6 adapter that yields URLs
// must implement.
type Source interface {
	MetaSnapshotStorage
	URLSourceStorage
}

// BytePipe bundles the two capabilities every decorator between the
// byte-stream pipe and the target implements.
type BytePipe interface {
	MetaSnapshotStorage
	ByteSourceStorage
}

// Target bundles the two capabilities every C7 back-end implements:
// enumerate what already exists, then write or remove individual
// objects (spec.md §4.1/§4.6).
type Target interface {
	MetaSnapshotStorage
	MetaTargetStorage
}
