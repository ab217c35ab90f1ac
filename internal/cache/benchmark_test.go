package cache_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/hashicorp/golang-lru/arc/v2"

	"weightcache/internal/cache"
)

type benchCache interface {
	Set(int, int)
	TryGet(int) (int, bool)
}

type arcWrapper struct {
	*arc.ARCCache[int, int]
}

func (aw arcWrapper) Set(key, value int)         { aw.Add(key, value) }
func (aw arcWrapper) TryGet(key int) (int, bool) { return aw.Get(key) }

// Fixed seed so both caches see the same keys
const rngSeed = 1

func BenchmarkWeightedCacheVsARC(b *testing.B) {
	for _, capacity := range []int{128, 2048} {
		constructors := []struct {
			name string
			new  func() benchCache
		}{
			{"Weighted", func() benchCache {
				c, err := cache.New(cache.NewOptions[int, int](int64(capacity)))
				if err != nil {
					b.Fatal(err)
				}
				return c
			}},
			{"ARC", func() benchCache {
				c, err := arc.NewARC[int, int](capacity)
				if err != nil {
					b.Fatal(err)
				}
				return arcWrapper{ARCCache: c}
			}},
		}

		for _, ctor := range constructors {
			b.Run(fmt.Sprintf("%s/%d", ctor.name, capacity), func(b *testing.B) {
				c := ctor.new()
				rng := rand.New(rand.NewSource(rngSeed))
				keys := make([]int, 1<<14)
				for i := range keys {
					keys[i] = rng.Intn(capacity * 4)
				}

				b.ResetTimer()
				for i := 0; i < b.N; i++ {
					key := keys[i&(len(keys)-1)]
					if _, ok := c.TryGet(key); !ok {
						c.Set(key, key)
					}
				}
			})
		}
	}
}
