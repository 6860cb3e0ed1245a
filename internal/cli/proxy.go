package cli

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/runrgateway/pkg/gateway"
)

var (
	proxyParams     string
	proxyProof      string
	proxyToken      string
	proxyIntent     string
	proxyKey        string
	proxyContentKey bool
	proxyWait       bool
	proxyPoll       time.Duration
)

var proxyCmd = &cobra.Command{
	Use:   "proxy [tool] [action]",
	Short: "Invoke a tool action through the gateway",
	Args:  cobra.ExactArgs(2),
	RunE:  runProxy,
}

var proxyAsyncCmd = &cobra.Command{
	Use:   "proxy-async [tool] [action]",
	Short: "Submit a tool action as an async job",
	Args:  cobra.ExactArgs(2),
	RunE:  runProxyAsync,
}

func init() {
	for _, c := range []*cobra.Command{proxyCmd, proxyAsyncCmd} {
		c.Flags().StringVar(&proxyParams, "params", "", "action parameters as a JSON object")
		c.Flags().StringVar(&proxyProof, "proof", "", "proof payload override as a JSON object")
		c.Flags().StringVar(&proxyToken, "token", "", "capability token (acquired automatically when empty)")
		c.Flags().StringVar(&proxyIntent, "intent", "", "intent label (overrides gateway.default_intent)")
		c.Flags().StringVar(&proxyKey, "idempotency-key", "", "explicit idempotency key")
		c.Flags().BoolVar(&proxyContentKey, "content-key", false, "derive the idempotency key from tool, action and params")
	}
	proxyAsyncCmd.Flags().BoolVar(&proxyWait, "wait", false, "wait for the job to finish")
	proxyAsyncCmd.Flags().DurationVar(&proxyPoll, "poll", gateway.DefaultPollInterval, "job poll interval with --wait")

	rootCmd.AddCommand(proxyCmd)
	rootCmd.AddCommand(proxyAsyncCmd)
}

func buildProxyRequest(args []string) (gateway.ProxyRequest, error) {
	params, err := parseObject(proxyParams)
	if err != nil {
		return gateway.ProxyRequest{}, fail("Invalid --params", err)
	}
	proof, err := parseObject(proxyProof)
	if err != nil {
		return gateway.ProxyRequest{}, fail("Invalid --proof", err)
	}

	return gateway.ProxyRequest{
		Tool:           args[0],
		Action:         args[1],
		Params:         params,
		Token:          proxyToken,
		ProofPayload:   proof,
		IdempotencyKey: proxyKey,
		ContentKey:     proxyContentKey,
	}, nil
}

func runProxy(cmd *cobra.Command, args []string) error {
	req, err := buildProxyRequest(args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if proxyIntent != "" {
		s.client.SetIntent(proxyIntent)
	}

	res, err := s.client.ProxyDetailed(context.Background(), req)
	if err != nil {
		return fail("Proxy request failed", err)
	}
	if res.Rotation.Recommended {
		slog.Warn("Refresh your token soon", "expires_at", res.Rotation.ExpiresAt)
	}
	slog.Debug("Proxy request succeeded", "correlation_id", res.CorrelationID)
	return printJSON(res.Data)
}

func runProxyAsync(cmd *cobra.Command, args []string) error {
	req, err := buildProxyRequest(args)
	if err != nil {
		return err
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()
	if proxyIntent != "" {
		s.client.SetIntent(proxyIntent)
	}

	ctx := context.Background()
	jobID, err := s.client.ProxyAsync(ctx, req)
	if err != nil {
		return fail("Async proxy request failed", err)
	}

	if !proxyWait {
		return printJSON(map[string]string{"job_id": jobID})
	}

	slog.Info("Waiting for job", "job_id", jobID)
	job, err := s.client.WaitForJob(ctx, jobID, proxyPoll)
	if err != nil {
		return fail("Failed waiting for job", err)
	}
	if err := printJob(jobID, job); err != nil {
		return err
	}
	if job.Status == gateway.JobFailed {
		return fail("Job failed", errors.New(job.Error))
	}
	return nil
}
