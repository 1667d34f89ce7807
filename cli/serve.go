// ABOUTME: HTTP API subcommand
// ABOUTME: Runs the REST API and, optionally, the automation scheduler beside it
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/automation"
	"github.com/victor-4502/naova-mvp-sub002/web"
)

// ServeCommand runs the HTTP API until interrupted
func ServeCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	port := fs.Int("port", a.Config.HTTPPort, "Listen port")
	withAutomation := fs.Bool("automation", false, "Also run the automation scheduler")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *withAutomation {
		scheduler, err := automation.NewScheduler(a.Automation, a.Config.AutomationInterval, a.Log)
		if err != nil {
			return err
		}
		done := make(chan struct{})
		defer func() { <-done }()
		go func() {
			defer close(done)
			_ = scheduler.Run(ctx)
		}()
	}

	err := web.NewServer(a).ListenAndServe(ctx, fmt.Sprintf(":%d", *port))
	stop()
	return err
}
