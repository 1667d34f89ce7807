// ABOUTME: Gmail intake commands
// ABOUTME: OAuth login and importing unread mail as requests
package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/oauth2"

	"github.com/victor-4502/naova-mvp-sub002/app"
	"github.com/victor-4502/naova-mvp-sub002/auth"
	"github.com/victor-4502/naova-mvp-sub002/intake"
)

// IntakeLoginCommand runs the OAuth consent flow and stores the token
func IntakeLoginCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	_ = fs.Parse(args)

	cfg, err := intake.NewOAuthConfig(a.Config.Gmail)
	if err != nil {
		return err
	}

	url := cfg.AuthCodeURL("naova-intake", oauth2.AccessTypeOffline)
	fmt.Println("Open this URL in your browser and authorize access:")
	fmt.Printf("\n%s\n\n", url)
	fmt.Print("Paste the authorization code: ")

	code, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read code: %w", err)
	}

	ctx := context.Background()
	token, err := cfg.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("failed to exchange code: %w", err)
	}

	path := intake.TokenPath()
	if err := intake.SaveToken(path, token); err != nil {
		return err
	}
	fmt.Printf("✓ Token saved to %s\n", path)
	return nil
}

// IntakeGmailCommand imports unread mail from the configured label
func IntakeGmailCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("gmail", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjRequests, auth.ActCreate); err != nil {
		return err
	}

	importer, err := a.GmailImporter(ctx)
	if err != nil {
		return err
	}

	report, err := importer.Import(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Imported %d request(s), %d already seen, %d failed\n",
		len(report.Created), report.Skipped, report.Failed)
	for _, sender := range report.Unmapped {
		fmt.Printf("  ⚠ no client mapped for %s\n", sender)
	}
	return nil
}
