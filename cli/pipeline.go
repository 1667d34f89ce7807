// ABOUTME: Pipeline board command
// ABOUTME: Prints the kanban view of requests per stage
package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/viz"
)

// PipelineShowCommand renders the pipeline board
func PipelineShowCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	client := fs.String("client", "", "Only show one client's requests")
	perStage := fs.Int("per-stage", 5, "Requests listed under each stage")
	_ = fs.Parse(args)

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjPipeline, auth.ActRead)
	if err != nil {
		return err
	}

	var clientID *string
	if *client != "" {
		clientID = client
	}
	if scope := id.Scope(); scope != nil {
		if clientID != nil && *clientID != *scope {
			return a.Authorizer.CheckOwner(id, *clientID)
		}
		clientID = scope
	}

	board, err := a.Pipeline.GetPipeline(ctx, clientID)
	if err != nil {
		return err
	}

	fmt.Print(viz.RenderBoard(board, *perStage))
	return nil
}
