package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/vietddude/runrgateway/internal/metrics"
)

// DefaultPollInterval is used by WaitForJob when no interval is given.
const DefaultPollInterval = 2 * time.Second

// GetJob fetches the status of an async job. Terminal statuses are served
// from the job cache when one is configured.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	if jobID == "" {
		return nil, errors.New("gateway: job id is required")
	}

	if c.jobs != nil {
		job, found, err := c.jobs.Get(ctx, jobID)
		if err != nil {
			c.logger.Warn("Job cache lookup failed", "job_id", jobID, "error", err)
		} else if found {
			metrics.JobCacheHits.Inc()
			return job, nil
		}
	}

	resp, _, err := c.send(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(jobID), "jobs", nil, nil)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := decode(resp, &job); err != nil {
		return nil, err
	}
	job.ID = jobID

	if c.jobs != nil && job.Status.IsTerminal() {
		if err := c.jobs.Put(ctx, &job); err != nil {
			c.logger.Warn("Failed to cache job", "job_id", jobID, "error", err)
		}
	}

	return &job, nil
}

// WaitForJob polls until the job is done or failed, or ctx ends.
func (c *Client) WaitForJob(ctx context.Context, jobID string, interval time.Duration) (*Job, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.GetJob(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		c.logger.Debug("Job not finished", "job_id", jobID, "status", job.Status)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
