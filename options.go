package specgloss

// MergeOption configures a Merger during creation.
//
// Example:
//
//	// One goroutine per CPU (default)
//	m := specgloss.NewMerger()
//
//	// Fixed worker count, 16 rows per task
//	m := specgloss.NewMerger(specgloss.WithWorkers(4), specgloss.WithRowsPerTask(16))
type MergeOption func(*mergeOptions)

// mergeOptions holds optional configuration for a Merger.
type mergeOptions struct {
	workers     int
	rowsPerTask int
}

// defaultMergeOptions returns the default merge options.
func defaultMergeOptions() mergeOptions {
	return mergeOptions{
		workers:     0, // GOMAXPROCS
		rowsPerTask: 0, // derived from height and workers
	}
}

// WithWorkers sets the number of goroutines rows are spread across.
// Zero or a negative value uses GOMAXPROCS; 1 runs every row on the
// calling goroutine.
func WithWorkers(n int) MergeOption {
	return func(o *mergeOptions) {
		o.workers = n
	}
}

// WithRowsPerTask sets how many consecutive rows one task processes.
// Zero or a negative value picks a size giving each worker about four tasks.
func WithRowsPerTask(n int) MergeOption {
	return func(o *mergeOptions) {
		o.rowsPerTask = n
	}
}
