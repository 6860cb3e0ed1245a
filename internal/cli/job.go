package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/runrgateway/pkg/gateway"
	"github.com/vietddude/runrgateway/pkg/gateway/requestid"
)

var (
	jobWait bool
	jobPoll time.Duration
)

var jobCmd = &cobra.Command{
	Use:   "job [job_id]",
	Short: "Show the status of an async job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

var idempotencyKeyCmd = &cobra.Command{
	Use:   "idempotency-key [tool] [action]",
	Short: "Print an idempotency key (content-derived with --params)",
	Args:  cobra.RangeArgs(0, 2),
	RunE:  runIdempotencyKey,
}

var keyParams string

func init() {
	jobCmd.Flags().BoolVar(&jobWait, "wait", false, "poll until the job is done or failed")
	jobCmd.Flags().DurationVar(&jobPoll, "poll", gateway.DefaultPollInterval, "poll interval with --wait")
	idempotencyKeyCmd.Flags().StringVar(&keyParams, "params", "", "action parameters as a JSON object")

	rootCmd.AddCommand(jobCmd)
	rootCmd.AddCommand(idempotencyKeyCmd)
}

func runJob(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	var job *gateway.Job
	if jobWait {
		job, err = s.client.WaitForJob(ctx, args[0], jobPoll)
	} else {
		job, err = s.client.GetJob(ctx, args[0])
	}
	if err != nil {
		return fail("Failed to get job", err)
	}
	return printJob(args[0], job)
}

func printJob(jobID string, job *gateway.Job) error {
	out := map[string]any{"job_id": jobID, "status": job.Status}
	if len(job.Result) > 0 {
		out["result"] = job.Result
	}
	if job.Error != "" {
		out["error"] = job.Error
	}
	return printJSON(out)
}

func runIdempotencyKey(cmd *cobra.Command, args []string) error {
	if len(args) != 2 {
		fmt.Println(requestid.NewIdempotencyKey())
		return nil
	}

	params, err := parseObject(keyParams)
	if err != nil {
		return fail("Invalid --params", err)
	}
	key, err := requestid.IdempotencyKeyFor(args[0], args[1], params)
	if err != nil {
		return fail("Failed to derive key", err)
	}
	fmt.Println(key)
	return nil
}
