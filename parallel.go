package vertrans

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// forEachParallel calls fn for every index in [0, n) with at most limit
// calls in flight, and returns when all calls are done.
func forEachParallel(ctx context.Context, n, limit int, fn func(ctx context.Context, i int)) {
	if n == 0 {
		return
	}
	if limit <= 0 || limit > n {
		limit = n
	}

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()
}

// ParallelLookup fetches the stored translations of one record version in
// several languages concurrently. Languages with nothing stored map to an
// empty mapping; the first store error aborts the result.
func ParallelLookup(ctx context.Context, store TranslationReader, base StoreKey, languages []string) (map[string]map[string]string, error) {
	unique := make([]string, 0, len(languages))
	seen := make(map[string]bool)
	for _, lang := range languages {
		lang = StoreLang(lang)
		if lang == "" || seen[lang] {
			continue
		}
		seen[lang] = true
		unique = append(unique, lang)
	}

	var mu sync.Mutex
	out := make(map[string]map[string]string, len(unique))

	g, gctx := errgroup.WithContext(ctx)
	for _, lang := range unique {
		g.Go(func() error {
			key := base
			key.Language = lang
			fields, err := Lookup(gctx, store, key)
			if err != nil {
				return err
			}
			mu.Lock()
			out[lang] = fields
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
