package emu

import "sync"

// forEach runs job(0..n-1) on up to workers goroutines and returns the error
// of the lowest failing index.
func forEach(n, workers int, job func(i int) error) error {
	errs := make([]error, n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			errs[i] = job(i)
		}
		return first(errs)
	}

	jobs := make(chan int, n)
	defer close(jobs)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		go func() {
			for i := range jobs {
				errs[i] = job(i)
				wg.Done()
			}
		}()
	}

	for i := 0; i < n; i++ {
		wg.Add(1)
		jobs <- i
	}
	wg.Wait()
	return first(errs)
}

func first(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
