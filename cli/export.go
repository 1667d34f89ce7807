// ABOUTME: Spreadsheet export command
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
)

// ExportPipelineCommand writes the pipeline and orders to an xlsx workbook
func ExportPipelineCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	out := fs.String("out", "naova-pipeline.xlsx", "Output file")
	client := fs.String("client", "", "Only export one client")
	_ = fs.Parse(args)

	ctx := context.Background()
	id, err := authorize(ctx, a, auth.ObjExport, auth.ActRun)
	if err != nil {
		return err
	}

	var clientID *string
	if *client != "" {
		clientID = client
	}
	if scope := id.Scope(); scope != nil {
		clientID = scope
	}

	data, err := a.Export.WorkbookXLSX(ctx, clientID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", *out, err)
	}

	fmt.Printf("✓ Exported to %s\n", *out)
	return nil
}
