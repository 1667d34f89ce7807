// ABOUTME: RFQ and quote CLI commands
// ABOUTME: Sends RFQs, records supplier quotes from JSON and prints comparisons
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/Rhymond/go-money"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
)

// RFQSendCommand dispatches RFQs for a normalized request
func RFQSendCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	idFlag := fs.String("request", "", "Request ID")
	_ = fs.Parse(args)

	requestID, err := requireID("request", *idFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjRFQs, auth.ActSend); err != nil {
		return err
	}

	res, err := a.Automation.SendRFQ(ctx, requestID)
	if err != nil {
		return err
	}
	if !res.Changed && res.Detail != "" {
		fmt.Printf("No RFQs sent: %s\n", res.Detail)
		return nil
	}

	fmt.Printf("✓ RFQs sent for %s (%s)\n", shortID(requestID), res.Detail)
	return nil
}

// QuoteReceiveCommand records a supplier quote read from --file or stdin
func QuoteReceiveCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("receive", flag.ExitOnError)
	idFlag := fs.String("request", "", "Request ID")
	file := fs.String("file", "", "Quote JSON file (default: stdin)")
	_ = fs.Parse(args)

	requestID, err := requireID("request", *idFlag)
	if err != nil {
		return err
	}

	payload, err := readPayload(*file, os.Stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjQuotes, auth.ActCreate); err != nil {
		return err
	}

	q, err := a.Receiver.Receive(ctx, requestID, payload)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Quote recorded: %s\n", q.ID)
	fmt.Printf("  Total: %s  Delivery: %d day(s)\n", money.New(q.Total, q.Currency).Display(), q.DeliveryDays)
	return nil
}

// QuoteCompareCommand ranks the live quotes of a request
func QuoteCompareCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	idFlag := fs.String("request", "", "Request ID")
	_ = fs.Parse(args)

	requestID, err := requireID("request", *idFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjQuotes, auth.ActRead)
	if err != nil {
		return err
	}
	if err := checkRequestOwner(ctx, a, id, requestID, "request", requestID); err != nil {
		return err
	}

	cmp, err := a.Comparator.Compare(ctx, requestID)
	if err != nil {
		return err
	}
	if len(cmp.Ranking) == 0 {
		fmt.Println("No live quotes yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tTOTAL\tDELIVERY\tSAVINGS\tQUOTE")
	_, _ = fmt.Fprintln(w, "----\t-----\t--------\t-------\t-----")
	for _, r := range cmp.Ranking {
		rank := fmt.Sprintf("%d", r.Rank)
		if r.Best {
			rank += " ★"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%dd\t%s\t%s\n",
			rank, r.Total, r.Quote.DeliveryDays, money.New(r.Savings, cmp.Currency).Display(), r.Quote.ID)
	}
	_ = w.Flush()

	if len(cmp.Expired) > 0 {
		fmt.Printf("\n%d expired quote(s) skipped\n", len(cmp.Expired))
	}
	return nil
}

func readPayload(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}
