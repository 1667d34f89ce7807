// ABOUTME: Order graph command
// ABOUTME: Renders an order's status chain with graphviz
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/viz"
)

// VizOrderCommand renders the order graph to stdout or --out
func VizOrderCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("order", flag.ExitOnError)
	idFlag := fs.String("id", "", "Order ID")
	format := fs.String("format", "dot", "Output format: dot, svg, png")
	out := fs.String("out", "", "Output file (default: stdout)")
	_ = fs.Parse(args)

	orderID, err := requireID("id", *idFlag)
	if err != nil {
		return err
	}
	f, err := viz.ParseFormat(*format)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjOrders, auth.ActRead)
	if err != nil {
		return err
	}

	info, err := a.Tracking.GetTrackingInfo(ctx, orderID)
	if err != nil {
		return err
	}
	if err := a.Authorizer.CheckVisible(id, info.ClientID, "purchase order", orderID); err != nil {
		return err
	}

	data, err := viz.OrderGraph(ctx, info, f)
	if err != nil {
		return err
	}

	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}
	fmt.Printf("✓ Graph written to %s\n", *out)
	return nil
}
