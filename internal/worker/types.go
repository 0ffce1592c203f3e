package worker

import "context"

// Job is a unit of work executed by the pool.
type Job func(ctx context.Context) error
