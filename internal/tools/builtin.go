package tools

import "net/http"

// Options customizes the builtin tool set.
type Options struct {
	SearchEndpoint string
	HTTPClient     *http.Client
}

// NewEnhancedProvider registers the structured builtin tools.
func NewEnhancedProvider(opts Options) *Registry {
	r := NewRegistry("enhanced")
	r.MustRegister(CalculatorTool{})
	r.MustRegister(&SearchTool{Endpoint: opts.SearchEndpoint, Client: opts.HTTPClient})
	r.MustRegister(&FetchTool{Client: opts.HTTPClient})
	for _, t := range financeTools() {
		r.MustRegister(t)
	}
	return r
}

// DefaultChain resolves enhanced implementations first and falls back to the
// legacy set.
func DefaultChain(opts Options) Chain {
	return Chain{
		NewEnhancedProvider(opts),
		NewLegacyProvider(DefaultLegacyFuncs()),
	}
}
