package dedupe

// defaultMaxSize bounds the seen set when no option overrides it.
const defaultMaxSize = 50000

// Option applies a configuration option to the in-memory deduper.
type Option func(*inMemoryDeduper)

// WithMaxSize bounds the number of remembered IDs. Zero or negative
// disables eviction.
func WithMaxSize(size int) Option {
	return func(d *inMemoryDeduper) {
		d.maxSize = size
	}
}
