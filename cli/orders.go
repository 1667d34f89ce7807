// ABOUTME: Purchase order CLI commands
// ABOUTME: Create orders from quotes, track them, advance and cancel
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/apperr"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/viz"
)

// OrderCreateCommand accepts a quote and opens its purchase order
func OrderCreateCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	quoteFlag := fs.String("quote", "", "Quote ID to accept")
	_ = fs.Parse(args)

	quoteID, err := requireID("quote", *quoteFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjQuotes, auth.ActAccept)
	if err != nil {
		return err
	}

	q, err := a.Quotes.Get(ctx, quoteID)
	if errors.Is(err, db.ErrNotFound) {
		return apperr.NotFound("quote %s not found", quoteID)
	}
	if err != nil {
		return err
	}
	if err := checkRequestOwner(ctx, a, id, q.RequestID, "quote", quoteID); err != nil {
		return err
	}

	po, err := a.Creator.CreateFromQuote(ctx, quoteID)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Purchase order created: %s\n", po.ID)
	fmt.Printf("  Status: %s  Payment: %s\n", po.Status, po.PaymentStatus)
	return nil
}

// OrderTrackCommand shows an order's progress and timeline
func OrderTrackCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("track", flag.ExitOnError)
	idFlag := fs.String("id", "", "Order ID")
	_ = fs.Parse(args)

	orderID, err := requireID("id", *idFlag)
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

	fmt.Print(viz.RenderTracking(info))
	return nil
}

// OrderAdvanceCommand moves an order one step along the status chain
func OrderAdvanceCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("advance", flag.ExitOnError)
	idFlag := fs.String("id", "", "Order ID")
	meta := metaFlag{}
	fs.Var(meta, "meta", "Timeline metadata as key=value (repeatable)")
	_ = fs.Parse(args)

	orderID, err := requireID("id", *idFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjOrders, auth.ActAdvance); err != nil {
		return err
	}

	advanced, err := a.Tracking.AdvanceStatus(ctx, orderID, meta.metadata())
	if err != nil {
		return err
	}
	if !advanced {
		fmt.Printf("Order %s is already at the end of its chain\n", shortID(orderID))
		return nil
	}

	po, err := a.Orders.Get(ctx, orderID)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Order %s advanced to %s\n", shortID(orderID), po.Status)
	return nil
}

// OrderCancelCommand cancels an order with a reason
func OrderCancelCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	idFlag := fs.String("id", "", "Order ID")
	reason := fs.String("reason", "", "Cancellation reason")
	_ = fs.Parse(args)

	orderID, err := requireID("id", *idFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjOrders, auth.ActCancel); err != nil {
		return err
	}

	if err := a.Tracking.CancelOrder(ctx, orderID, *reason); err != nil {
		return err
	}

	fmt.Printf("✓ Order %s cancelled\n", shortID(orderID))
	return nil
}

// checkRequestOwner hides requestID from other clients, naming the record
// the caller asked for (kind and recordID) in the not-found error.
func checkRequestOwner(ctx context.Context, a *app.App, id auth.Identity, requestID uuid.UUID, kind string, recordID any) error {
	if id.Scope() == nil {
		return nil
	}
	req, err := a.Pipeline.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return a.Authorizer.CheckVisible(id, req.ClientID, kind, recordID)
}
