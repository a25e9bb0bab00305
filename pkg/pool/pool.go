package pool

import (
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

// searchAlone runs f, which may return nil, until count elements are found or f fails.
func searchAlone(f func() (interface{}, error), count int) ([]interface{}, error) {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		for results[i] == nil {
			res, err := f()
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
	}
	return results, nil
}

// parallelizeAlone calculates the result of f count times
func parallelizeAlone(f func(int) interface{}, count int) []interface{} {
	results := make([]interface{}, count)
	for i := 0; i < len(results); i++ {
		results[i] = f(i)
	}
	return results
}

// firstError keeps the first error reported by any worker.
type firstError struct {
	once sync.Once
	err  error
}

func (e *firstError) set(err error) {
	e.once.Do(func() { e.err = err })
}

// command is used to trigger our latent workers to do something.
//
// The idea is that a worker is told to either calculate a function once,
// or keep calculating a function until it returns a non nil result.
type command struct {
	search bool
	// This counter indicates the number of results that still need to be produced.
	ctr *int64
	// This is the index we evaluate our function at, when not searching
	i int
	f func(int) (interface{}, error)
	// This is the array where we put results
	results []interface{}
	err     *firstError
	done    *sync.WaitGroup
}

// workerSearch is the subroutine called when doing a search command.
//
// We need to keep searching for successful queries of f while *ctr > 0.
// When we find a successful result, we decrement *ctr. A failing query
// sets *ctr to 0, which stops every other worker of the same command.
func workerSearch(c command) {
	for atomic.LoadInt64(c.ctr) > 0 {
		res, err := c.f(0)
		if err != nil {
			c.err.set(err)
			atomic.StoreInt64(c.ctr, 0)
			return
		}
		if res == nil {
			continue
		}
		i := atomic.AddInt64(c.ctr, -1)
		if i < 0 {
			return
		}
		c.results[i] = res
	}
}

// worker starts up a new worker, listening to commands, and producing results
func worker(commands <-chan command) {
	for c := range commands {
		if c.search {
			workerSearch(c)
		} else {
			c.results[c.i], _ = c.f(c.i)
		}
		c.done.Done()
	}
}

// Pool represents a pool of workers, used for parallelizing functions.
//
// Functions needing a *Pool will work with a nil receiver, doing the equivalent
// work on the current thread instead.
//
// By creating a pool, you avoid the overhead of spinning up goroutines for
// each new operation.
type Pool struct {
	// The common channel used to send commands to the workers.
	//
	// This effectively makes a work stealing pool.
	commands chan command
	// This holds the number of workers we've created
	workerCount int
}

// NewPool creates a new pool, with a certain number of workers.
//
// If count <= 0, this will use the number of available CPUs instead.
func NewPool(count int) *Pool {
	var p Pool

	if count <= 0 {
		count = runtime.NumCPU()
	}

	p.commands = make(chan command)
	p.workerCount = count

	for i := 0; i < count; i++ {
		go worker(p.commands)
	}

	return &p
}

// Workers returns the number of goroutines backing the pool, or 1 for a nil pool.
func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workerCount
}

// TearDown cleanly tears down a pool, closing channels, etc.
func (p *Pool) TearDown() {
	if p == nil {
		return
	}
	close(p.commands)
}

// Search queries the function f, until count successes are found.
//
// f is supposed to try a single candidate, returning nil if that candidate isn't
// successful. If f returns an error, the search stops and that error is returned.
//
// The result will be an array containing the first count successes.
func (p *Pool) Search(count int, f func() (interface{}, error)) ([]interface{}, error) {
	if p == nil {
		return searchAlone(f, count)
	}

	var wg sync.WaitGroup
	results := make([]interface{}, count)
	ctr := int64(count)
	cmd := command{
		search:  true,
		ctr:     &ctr,
		f:       func(int) (interface{}, error) { return f() },
		results: results,
		err:     new(firstError),
		done:    &wg,
	}
	wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		p.commands <- cmd
	}
	wg.Wait()

	if cmd.err.err != nil {
		return nil, cmd.err.err
	}
	return results, nil
}

// Parallelize calls a function count times, passing in indices from 0..count-1.
//
// The result will be a slice containing [f(0), f(1), ..., f(count - 1)].
func (p *Pool) Parallelize(count int, f func(int) interface{}) []interface{} {
	if p == nil {
		return parallelizeAlone(f, count)
	}

	var wg sync.WaitGroup
	results := make([]interface{}, count)
	wg.Add(count)
	for i := 0; i < count; i++ {
		p.commands <- command{
			i:       i,
			f:       func(i int) (interface{}, error) { return f(i), nil },
			results: results,
			done:    &wg,
		}
	}
	wg.Wait()

	return results
}

// LockedReader wraps an io.Reader to be safe for concurrent reads.
//
// This type implements io.Reader, returning the same output.
//
// This means acquiring a lock whenever a read happens, so be aware of that
// for performance or concurrency reasons.
type LockedReader struct {
	reader io.Reader
	m      sync.Mutex
}

// NewLockedReader creates a LockedReader by wrapping an underlying value.
func NewLockedReader(r io.Reader) *LockedReader {
	return &LockedReader{reader: r}
}

// Read implements io.Reader for LockedReader
func (r *LockedReader) Read(p []byte) (int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	return r.reader.Read(p)
}
