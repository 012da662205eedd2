package filewatch

import "github.com/bft-labs/liveagent/pkg/liveagent"

// WithFileWatch returns a liveagent Option that reloads the page whenever
// files under cfg.Dir change.
//
// Usage:
//
//	a, err := liveagent.New(cfg,
//	    filewatch.WithFileWatch(filewatch.Config{
//	        Dir:      "./site",
//	        Debounce: 200 * time.Millisecond,
//	    }),
//	)
func WithFileWatch(cfg Config) liveagent.Option {
	return liveagent.WithPlugin(New(cfg))
}
