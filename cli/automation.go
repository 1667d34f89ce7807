// ABOUTME: Automation CLI commands
// ABOUTME: One-shot batch run and the long-running daemon
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/automation"
)

// AutomationRunCommand processes every pending request once
func AutomationRunCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	noSend := fs.Bool("no-send", false, "Do not send RFQs automatically")
	_ = fs.Parse(args)

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjAutomation, auth.ActRun); err != nil {
		return err
	}
	if *noSend {
		a.Settings.SetAutoSendRFQ(false)
	}

	report, err := a.Automation.ProcessAllPending(ctx)
	if err != nil {
		return err
	}

	printReport(report)
	return nil
}

// AutomationDaemonCommand runs the batch on an interval until interrupted
func AutomationDaemonCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("daemon", flag.ExitOnError)
	interval := fs.Duration("interval", a.Config.AutomationInterval, "Time between batches")
	_ = fs.Parse(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := authorize(ctx, a, auth.ObjAutomation, auth.ActRun); err != nil {
		return err
	}

	scheduler, err := automation.NewScheduler(a.Automation, *interval, a.Log)
	if err != nil {
		return err
	}
	scheduler.OnReport(printReport)

	fmt.Printf("Automation running every %s (Ctrl+C to stop)\n", *interval)
	return scheduler.Run(ctx)
}

func printReport(report *automation.BatchReport) {
	fmt.Printf("✓ Processed %d request(s), %d advanced\n", report.Processed, report.Advanced)
	for _, r := range report.Results {
		if r.Changed {
			fmt.Printf("  %s → %s (%s)\n", shortID(r.RequestID), r.Stage, r.Action)
		}
	}
	for _, f := range report.Failures {
		fmt.Printf("  ✗ %s: %s\n", shortID(f.RequestID), f.Error)
	}
}
