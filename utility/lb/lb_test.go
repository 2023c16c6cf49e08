package lb_test

import (
	"math"
	"sync"
	"testing"

	"github.com/gogf/gf/v2/test/gtest"
	"github.com/iimeta/fastrelay/utility/lb"
)

func Test_RoundRobin_Index(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {
		r := lb.NewRoundRobin()
		seen := make([]int, 0)
		for i := 0; i < 6; i++ {
			seen = append(seen, r.Index(3))
		}
		t.Assert(seen, []int{0, 1, 2, 0, 1, 2})
	})

	// 集合缩小后游标取模
	gtest.C(t, func(t *gtest.T) {
		r := lb.NewRoundRobin(4)
		t.Assert(r.Index(5), 4)
		t.Assert(r.Index(2), 0)
		t.Assert(r.Index(2), 1)
		t.Assert(r.Index(0), 0)
	})
}

func Test_RoundRobin_Concurrent(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {
		var (
			r  = lb.NewRoundRobin()
			wg sync.WaitGroup
		)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					index := r.Index(7)
					if index < 0 || index >= 7 {
						panic("index out of range")
					}
				}
			}()
		}
		wg.Wait()
		t.AssertLT(r.Cursor(), int64(7))
	})
}

func Test_PickWeightAt(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {
		weights := []float64{70, 30}
		t.Assert(lb.PickWeightAt(weights, 0), 0)
		t.Assert(lb.PickWeightAt(weights, 0.69), 0)
		t.Assert(lb.PickWeightAt(weights, 0.7), 1)
		t.Assert(lb.PickWeightAt(weights, 0.9999), 1)
		t.Assert(lb.PickWeightAt([]float64{0, 5}, 0.1), 1)
		t.Assert(lb.PickWeightAt([]float64{0, 0}, 0.6), 1)
		t.Assert(lb.PickWeightAt(nil, 0.5), -1)
	})
}

func Test_PickWeight_Proportional(t *testing.T) {
	gtest.C(t, func(t *gtest.T) {
		var (
			weights = []float64{1, 3, 6}
			counts  = make([]int, len(weights))
			draws   = 100000
		)
		for i := 0; i < draws; i++ {
			counts[lb.PickWeight(weights)]++
		}
		for i, w := range weights {
			got := float64(counts[i]) / float64(draws)
			t.AssertLT(math.Abs(got-w/10), 0.02)
		}
	})
}
