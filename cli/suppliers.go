// ABOUTME: Supplier CLI commands
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
	"github.com/victor-4502/naova-mvp-sub002/models"
	"github.com/victor-4502/naova-mvp-sub002/normalize"
)

// SupplierAddCommand registers a supplier
func SupplierAddCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	email := fs.String("email", "", "Supplier email")
	phone := fs.String("phone", "", "Supplier phone")
	categories := fs.String("categories", "", "Comma-separated categories")
	inactive := fs.Bool("inactive", false, "Register without receiving RFQs")
	_ = fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("supplier name is required")
	}

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjSuppliers, auth.ActCreate); err != nil {
		return err
	}

	s := &models.Supplier{
		Name:       strings.Join(fs.Args(), " "),
		Email:      *email,
		Phone:      *phone,
		Categories: splitList(*categories),
		Active:     !*inactive,
	}
	if err := a.Suppliers.Create(ctx, s); err != nil {
		return fmt.Errorf("failed to create supplier: %w", err)
	}

	for _, c := range unknownCategories(s.Categories) {
		fmt.Printf("⚠ category %q is not one the classifier produces\n", c)
	}
	fmt.Printf("✓ Supplier created: %s (ID: %s)\n", s.Name, s.ID)
	return nil
}

// SupplierListCommand lists every supplier
func SupplierListCommand(a *app.App, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	_ = fs.Parse(args)

	ctx := context.Background()
	if _, err := authorize(ctx, a, auth.ObjSuppliers, auth.ActRead); err != nil {
		return err
	}

	suppliers, err := a.Suppliers.List(ctx)
	if err != nil {
		return err
	}
	if len(suppliers) == 0 {
		fmt.Println("No suppliers found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tEMAIL\tCATEGORIES\tACTIVE\tID")
	_, _ = fmt.Fprintln(w, "----\t-----\t----------\t------\t--")
	for _, s := range suppliers {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n",
			s.Name, orDash(s.Email), orDash(strings.Join(s.Categories, ",")), s.Active, s.ID)
	}
	_ = w.Flush()

	fmt.Printf("\nTotal: %d supplier(s)\n", len(suppliers))
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func unknownCategories(categories []string) []string {
	known := map[string]bool{}
	for _, c := range normalize.Categories() {
		known[c] = true
	}
	var unknown []string
	for _, c := range categories {
		if !known[strings.ToLower(c)] {
			unknown = append(unknown, c)
		}
	}
	return unknown
}
