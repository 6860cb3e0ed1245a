package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vietddude/runrgateway/pkg/gateway"
)

var (
	tokenTools       []string
	tokenPermissions []string
	tokenTTL         int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Request a capability token",
	RunE:  runToken,
}

func init() {
	tokenCmd.Flags().StringSliceVar(&tokenTools, "tools", nil, "tools the token may call")
	tokenCmd.Flags().StringSliceVar(&tokenPermissions, "permissions", []string{"read"}, "permissions granted")
	tokenCmd.Flags().IntVar(&tokenTTL, "ttl", 15, "token lifetime in minutes")
	_ = tokenCmd.MarkFlagRequired("tools")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	token, err := s.client.GetToken(context.Background(), gateway.TokenOptions{
		Tools:       tokenTools,
		Permissions: tokenPermissions,
		TTLMinutes:  tokenTTL,
	})
	if err != nil {
		return fail("Failed to get token", err)
	}
	fmt.Println(token)
	return nil
}
