// Command engager sends a few emails through the gateway to show token
// handling, idempotent retries and error handling by kind.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/vietddude/runrgateway/pkg/gateway"
	"github.com/vietddude/runrgateway/pkg/gateway/gwerr"
	"github.com/vietddude/runrgateway/pkg/gateway/requestid"
)

type email struct {
	To          string
	Subject     string
	Body        string
	Description string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	client, err := gateway.New(gateway.Config{
		BaseURL:            getenv("GATEWAY_URL", "http://localhost:3000"),
		AgentID:            getenv("AGENT_ID", "test-agent"),
		AgentPrivateKeyPEM: getenv("AGENT_PRIVATE_KEY", "test-key"),
		DefaultIntent:      "email_engagement",
	})
	if err != nil {
		log.Fatalf("Failed to create gateway client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	fmt.Println("Getting token for gmail_send...")
	token, err := client.GetToken(ctx, gateway.TokenOptions{
		Tools:       []string{"gmail_send"},
		Permissions: []string{"write"},
		TTLMinutes:  15,
	})
	if err != nil {
		report("Token request failed", err)
		os.Exit(1)
	}
	fmt.Println("Token obtained")

	emails := []email{
		{
			To:          "test1@example.com",
			Subject:     "Partnership Opportunity",
			Body:        "Hi there, I think we could work together on some exciting projects...",
			Description: "Partnership email",
		},
		{
			To:          "test2@example.com",
			Subject:     "Product Demo Request",
			Body:        "Hello! I'd love to schedule a demo of your product...",
			Description: "Demo request email",
		},
	}

	for _, e := range emails {
		fmt.Printf("\nSending: %s\n  To: %s\n  Subject: %s\n", e.Description, e.To, e.Subject)
		send(ctx, client, token, e, requestid.NewIdempotencyKey())
	}

	// Same key twice: the gateway should only deliver once.
	fmt.Println("\nTesting idempotency...")
	key := requestid.NewIdempotencyKey()
	for i := 0; i < 2; i++ {
		fmt.Printf("  Attempt %d:\n", i+1)
		send(ctx, client, token, email{
			To:      "idempotency-test@example.com",
			Subject: "Idempotency Test",
			Body:    "This email should only be sent once due to idempotency.",
		}, key)
	}

	fmt.Println("\nTesting Gmail profile access...")
	data, err := client.Proxy(ctx, gateway.ProxyRequest{
		Tool:   "gmail_send",
		Action: "profile",
		Token:  token,
	})
	if err != nil {
		report("Profile access failed", err)
	} else {
		var profile struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		_ = json.Unmarshal(data, &profile)
		fmt.Printf("Profile: %s <%s>\n", profile.Name, profile.Email)
	}

	if stats, ok := client.Stats(); ok {
		fmt.Printf("\nGateway status: %s (%d requests, avg latency %s)\n",
			stats.Status, stats.RequestsLastHour, stats.AverageLatency)
	}
}

func send(ctx context.Context, client *gateway.Client, token string, e email, key string) {
	start := time.Now()
	res, err := client.ProxyDetailed(ctx, gateway.ProxyRequest{
		Tool:   "gmail_send",
		Action: "send",
		Params: map[string]any{
			"to":      e.To,
			"subject": e.Subject,
			"body":    e.Body,
		},
		Token:          token,
		IdempotencyKey: key,
	})
	if err != nil {
		report("Email failed", err)
		return
	}

	var sent struct {
		MessageID string `json:"message_id"`
	}
	_ = json.Unmarshal(res.Data, &sent)
	fmt.Printf("  Email sent (%dms), message id %q, correlation id %s\n",
		time.Since(start).Milliseconds(), sent.MessageID, res.CorrelationID)
	if res.Rotation.Recommended {
		fmt.Printf("  Token rotation recommended, expires at %s\n", res.Rotation.ExpiresAt)
	}
}

func report(msg string, err error) {
	switch {
	case errors.Is(err, gwerr.ErrPolicy):
		fmt.Printf("  %s: blocked by policy: %v\n", msg, err)
	case errors.Is(err, gwerr.ErrRateLimit):
		if gwErr, ok := gwerr.As(err); ok && gwErr.HasRetryAfter {
			fmt.Printf("  %s: rate limited, retry after %s\n", msg, gwErr.RetryAfter)
			return
		}
		fmt.Printf("  %s: rate limited\n", msg)
	case errors.Is(err, gwerr.ErrAuth), errors.Is(err, gwerr.ErrToken):
		fmt.Printf("  %s: token problem, request a new one: %v\n", msg, err)
	default:
		fmt.Printf("  %s: %v\n", msg, err)
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
