// Command triage answers questions by routing them to uploaded documents,
// web search or arXiv.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/triage/internal/adapters/driving/cli"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx)
	stop()
	os.Exit(code)
}

func run(ctx context.Context) int {
	a, err := newApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "triage: %v\n", err)
		return 1
	}
	defer a.Close()

	cli.SetVersion(version)
	cli.SetServices(a.services())
	cli.SetServeConfig(a.serveConfig())

	// cobra has already printed the error.
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
