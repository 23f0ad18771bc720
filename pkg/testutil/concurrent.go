// Package testutil holds helpers shared by unit tests.
package testutil

import (
	"sync"

	dErrors "podium/pkg/domain-errors"
)

// Outcomes counts the results of a concurrent run by domain error code.
// Successful calls are counted under the empty code.
type Outcomes map[dErrors.Code]int

func (o Outcomes) Successes() int { return o[""] }

func (o Outcomes) Total() int {
	n := 0
	for _, c := range o {
		n += c
	}
	return n
}

// RunConcurrent releases n goroutines at once, each calling fn with its
// index, and tallies what they returned. Errors without a domain code are
// counted as dErrors.CodeUnknown.
func RunConcurrent(n int, fn func(idx int) error) Outcomes {
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		out   = Outcomes{}
		start = make(chan struct{})
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			err := fn(i)

			code := dErrors.Code("")
			if err != nil {
				code = dErrors.CodeOf(err)
			}
			mu.Lock()
			out[code]++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()
	return out
}
