// Package jobcache stores terminal async job statuses so repeated lookups
// do not hit the gateway. Only done/failed jobs are cached: they never change.
package jobcache

import (
	"context"

	"github.com/vietddude/runrgateway/pkg/gateway/domain"
)

// Cache stores terminal jobs by id.
type Cache interface {
	// Get returns the cached job, or found=false on a miss.
	Get(ctx context.Context, jobID string) (job *domain.Job, found bool, err error)
	// Put stores a job. Non-terminal jobs are ignored.
	Put(ctx context.Context, job *domain.Job) error
	Close() error
}
