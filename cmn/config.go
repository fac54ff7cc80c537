package cmn

// Config carries every CLI-tunable that isn't specific to one source or
// target adapter. Each adapter/target keeps its own narrower config
// struct (e.g. target/s3.Config) rather than growing this one.
type Config struct {
	// Workers sizes the general-purpose worker pool; 0 means "host
	// parallelism" (runtime.GOMAXPROCS(0)).
	Workers int

	// ConcurrentResolve caps concurrent per-item snapshot-side requests
	// inside adapters (default 64, see spec.md §5).
	ConcurrentResolve int

	// ConcurrentTransfer caps concurrent Fetch+Put pairs during the
	// execution phase (default 8, see spec.md §5).
	ConcurrentTransfer int

	// NoDelete skips the delete phase of the execute step entirely.
	NoDelete bool

	// DryRun stops the engine after plan generation.
	DryRun bool

	// ForceAll treats every source item as Force, regardless of what
	// the adapter itself set.
	ForceAll bool

	// PrintPlan logs the first N plan entries at info level.
	PrintPlan int

	// Progress renders progress bars via vbauerster/mpb.
	Progress bool

	// Site is embedded into the HTTP User-Agent as
	// "mirror-clone / <ver> (<site>)", sourced from the required
	// MIRROR_CLONE_SITE environment variable (spec.md §6).
	Site string
}

// DefaultConfig mirrors the CLI flag defaults from spec.md §6.
func DefaultConfig() *Config {
	return &Config{
		ConcurrentResolve:  64,
		ConcurrentTransfer: 8,
	}
}
