// ABOUTME: Request CLI commands
// ABOUTME: Submit, list, move and process buyer requests from the terminal
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/db"
	"github.com/victor-4502/naova-mvp-sub002/intake"
	"github.com/victor-4502/naova-mvp-sub002/models"
)

// RequestAddCommand records a new request
func RequestAddCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	client := fs.String("client", "", "Client ID (defaults to NAOVA_CLIENT_ID)")
	source := fs.String("source", string(models.SourceWeb), "Source channel")
	urgency := fs.String("urgency", string(models.UrgencyNormal), "Urgency: low, normal, high, urgent")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("request text is required")
	}

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjRequests, auth.ActCreate)
	if err != nil {
		return err
	}

	clientID := *client
	if id.Role == auth.RoleClient {
		if clientID != "" && clientID != id.ClientID {
			return a.Authorizer.CheckOwner(id, clientID)
		}
		clientID = id.ClientID
	}

	req, err := a.Intake.Submit(ctx, intake.Submission{
		Source:   *source,
		ClientID: clientID,
		Content:  strings.Join(fs.Args(), " "),
		Urgency:  *urgency,
	})
	if err != nil {
		return err
	}

	fmt.Printf("✓ Request recorded: %s\n", req.ID)
	fmt.Printf("  Client: %s  Stage: %s  Urgency: %s\n", req.ClientID, req.Stage, req.Urgency)
	return nil
}

// RequestListCommand lists requests, newest first
func RequestListCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	client := fs.String("client", "", "Filter by client ID")
	stage := fs.String("stage", "", "Filter by pipeline stage")
	limit := fs.Int("limit", 50, "Maximum results")
	_ = fs.Parse(args)

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjPipeline, auth.ActRead)
	if err != nil {
		return err
	}

	filter := db.RequestFilter{Limit: *limit}
	if *client != "" {
		filter.ClientID = client
	}
	if scope := id.Scope(); scope != nil {
		filter.ClientID = scope
	}
	if *stage != "" {
		s, err := models.ParsePipelineStage(*stage)
		if err != nil {
			return err
		}
		filter.Stage = s
	}

	reqs, err := a.Requests.List(ctx, filter)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Println("No requests found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCLIENT\tSTAGE\tSTATUS\tCATEGORY\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t------\t-----\t------\t--------\t-------")
	for _, r := range reqs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.ClientID, r.Stage, r.Status, orDash(r.Category), r.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d request(s)\n", len(reqs))
	return nil
}

// RequestMoveCommand puts a request into another pipeline stage
func RequestMoveCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	idFlag := fs.String("id", "", "Request ID")
	stage := fs.String("stage", "", "Target stage")
	_ = fs.Parse(args)

	requestID, err := requireID("id", *idFlag)
	if err != nil {
		return err
	}
	if *stage == "" {
		return fmt.Errorf("--stage is required")
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjRequests, auth.ActUpdate); err != nil {
		return err
	}

	req, err := a.Pipeline.MoveRequest(ctx, requestID, *stage)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Request %s moved to %s\n", shortID(req.ID), req.Stage)
	return nil
}

// RequestProcessCommand runs one automation step on a request
func RequestProcessCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	idFlag := fs.String("id", "", "Request ID")
	_ = fs.Parse(args)

	requestID, err := requireID("id", *idFlag)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjAutomation, auth.ActRun); err != nil {
		return err
	}

	res, err := a.Automation.ProcessRequest(ctx, requestID)
	if err != nil {
		return err
	}

	mark := "·"
	if res.Changed {
		mark = "✓"
	}
	fmt.Printf("%s %s: %s (%s/%s)\n", mark, shortID(res.RequestID), res.Action, res.Stage, res.Status)
	if res.Detail != "" {
		fmt.Printf("  %s\n", res.Detail)
	}
	return nil
}
