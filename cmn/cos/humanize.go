package cos

import "github.com/dustin/go-humanize"

// FmtBytes renders a byte count the way progress/log lines report
// transfer sizes (e.g. "128 MB").
func FmtBytes(n uint64) string {
	return humanize.Bytes(n)
}
