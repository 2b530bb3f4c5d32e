package feed

// Option applies a configuration option to a Feed.
type Option func(*options)

type options struct {
	initial    any
	hasInitial bool
}

// WithInitial seeds the feed so the first reader gets v straight away. A
// value of the wrong type is ignored.
func WithInitial(v any) Option {
	return func(o *options) {
		o.initial, o.hasInitial = v, true
	}
}
