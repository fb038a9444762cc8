package engine

// Options is one tier of configuration. Lookups fall back to the parent
// tier: a service's options defer to the engine's.
type Options struct {
	parent *Options
	values map[string]any
}

func NewOptions(parent *Options) *Options {
	return &Options{parent: parent}
}

func (o *Options) Get(name string) (any, bool) {
	for s := o; s != nil; s = s.parent {
		if v, ok := s.values[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set is meant for deploy time; options are read concurrently once the
// engine serves calls.
func (o *Options) Set(name string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	o.values[name] = value
}

func (o *Options) Parent() *Options {
	return o.parent
}
