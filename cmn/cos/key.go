// Package cos ("common small stuff") holds pure helpers shared by every
// mclone package: key validation, checksum digesting, byte formatting.
/*
 * Copyright (c) 2024, mirrorkit authors.
 */
package cos

import "strings"

// ValidateKey enforces spec.md §3's SnapshotKey invariants: non-empty,
// no leading slash, no ".." path segment.
func ValidateKey(key string) bool {
	if key == "" {
		return false
	}
	if strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}

// NormalizeSeparator converts OS path separators to the forward-slash
// convention every SnapshotKey uses, regardless of host OS.
func NormalizeSeparator(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}
