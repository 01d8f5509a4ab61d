// Package cache provides a generic LRU cache for values that are expensive
// to build.
//
//	programs := cache.New[string, *Program](16, func(_ string, p *Program) {
//		p.Release()
//	})
//	p, err := programs.GetOrBuild("final_accum_late_rgba", build)
//
// The cache is safe for concurrent use. GetOrBuild holds the lock while
// building so concurrent callers asking for the same key wait for one build.
package cache
