package workorder

type options struct {
	expectedVersion *int64
	endWeight       *float64
	toLocation      string
	note            string
}

type Option func(*options)

// IfVersion makes the operation fail with domain.ErrConcurrencyConflict unless the work order is still at this version.
func IfVersion(version int64) Option {
	return func(o *options) {
		o.expectedVersion = &version
	}
}

// WithCloseOut records the remaining weight and destination of the coil whose usage the operation closes.
func WithCloseOut(endWeight *float64, toLocation string) Option {
	return func(o *options) {
		o.endWeight = endWeight
		o.toLocation = toLocation
	}
}

func WithNote(note string) Option {
	return func(o *options) {
		o.note = note
	}
}

func applyOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}
