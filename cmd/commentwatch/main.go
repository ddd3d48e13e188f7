package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"commentwatch/cmd/commentwatch/commands"
	"commentwatch/internal/components/telemetry"
	"commentwatch/lib/serviceutil"

	_ "time/tzdata"
)

func main() {
	ctx := serviceutil.SignalContext()

	otel, err := telemetry.SetupFromEnv(ctx, "commentwatch")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}

	err = commands.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	otel.Shutdown(shutdownCtx)

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
