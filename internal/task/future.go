package task

// Future is the pending result of a dispatched task.
type Future struct {
	done chan struct{}
	resp Response
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns an already completed future.
func Resolved(resp Response, err error) *Future {
	f := newFuture()
	f.resolve(resp, err)
	return f
}

func (f *Future) resolve(resp Response, err error) {
	f.resp, f.err = resp, err
	close(f.done)
}

// Done is closed once the task has finished.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the task has finished and returns its outcome.
func (f *Future) Wait() (Response, error) {
	<-f.done
	return f.resp, f.err
}

// RunAll dispatches every request and returns their futures in order.
func RunAll(d Dispatcher, reqs []Request) []*Future {
	futures := make([]*Future, len(reqs))
	for i, req := range reqs {
		futures[i] = d.Run(req)
	}
	return futures
}

// WaitAll waits for every future, even after a failure, so no task outlives
// the call. It returns the responses in order, or the first error by index.
func WaitAll(futures []*Future) ([]Response, error) {
	responses := make([]Response, len(futures))
	var firstErr error
	for i, f := range futures {
		resp, err := f.Wait()
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		responses[i] = resp
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return responses, nil
}
