package rdf

const (
	DefaultMaxLineBytes = 1 << 20
	DefaultMaxDepth     = 256
	DefaultMaxTriples   = 5_000_000
)

// Options configures parser limits and encoder behavior.
// Zero values use defaults. Negative values disable a limit.
type Options struct {
	// BaseIRI resolves relative IRIs.
	BaseIRI string
	// MaxLineBytes bounds a single input line.
	MaxLineBytes int
	// MaxDepth bounds nested blank node property lists and collections.
	MaxDepth int
	// MaxTriples bounds the number of triples a parser may produce.
	MaxTriples int
	// AllowRemoteContexts lets the JSON-LD reader fetch remote @context documents.
	AllowRemoteContexts bool
	// Prefixes are extra bindings offered to encoders.
	Prefixes map[string]string
}

// Option mutates Options.
type Option func(*Options)

// OptBaseIRI sets the base IRI.
func OptBaseIRI(base string) Option {
	return func(o *Options) { o.BaseIRI = base }
}

// OptMaxLineBytes sets the line length limit.
func OptMaxLineBytes(n int) Option {
	return func(o *Options) { o.MaxLineBytes = n }
}

// OptMaxDepth sets the nesting limit.
func OptMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

// OptMaxTriples sets the triple count limit.
func OptMaxTriples(n int) Option {
	return func(o *Options) { o.MaxTriples = n }
}

// OptAllowRemoteContexts enables fetching remote JSON-LD contexts.
func OptAllowRemoteContexts() Option {
	return func(o *Options) { o.AllowRemoteContexts = true }
}

// OptPrefix adds a prefix binding used by encoders.
func OptPrefix(prefix, namespace string) Option {
	return func(o *Options) {
		if o.Prefixes == nil {
			o.Prefixes = map[string]string{}
		}
		o.Prefixes[prefix] = namespace
	}
}

func buildOptions(opts []Option) Options {
	o := Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.MaxLineBytes == 0 {
		o.MaxLineBytes = DefaultMaxLineBytes
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxTriples == 0 {
		o.MaxTriples = DefaultMaxTriples
	}
	return o
}

func limitExceeded(limit, value int) bool {
	return limit > 0 && value > limit
}
