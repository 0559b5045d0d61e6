package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tripweaver/tripweaver/internal/currency"
	"github.com/tripweaver/tripweaver/internal/export"
)

// Export formats.
const (
	formatPDF   = "pdf"
	formatICS   = "ics"
	formatEmail = "email"
)

func exportCmd(p *printer, run runner) *cobra.Command {
	var (
		format   string
		output   string
		to       string
		currTo   string
		toStdout bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the itinerary as PDF, calendar or email text",
		Long: `Write the saved itinerary as a PDF document, an iCalendar file or email text.

Files are named after the destination unless --out is given. Email text is
printed together with a mailto link.`,
		Args:    cobra.NoArgs,
		GroupID: "sharing",
		RunE: run(func(ctx context.Context, cmd *cobra.Command, b *Backend, _ []string) error {
			format = strings.ToLower(strings.TrimSpace(format))
			if format != formatPDF && format != formatICS && format != formatEmail {
				return fmt.Errorf("unknown format %q: use pdf, ics or email", format)
			}

			state, err := resumed(ctx, b)
			if err != nil {
				return err
			}
			doc := export.Document{Plan: state.Plan, Preferences: state.Preferences}
			if currTo != "" {
				code, err := currency.NormalizeCode(currTo)
				if err != nil {
					return fmt.Errorf("unknown currency %q", currTo)
				}
				doc.Price = converter(ctx, cmd, b, code, state.Plan.LocalCurrencyCode)
			}

			out := cmd.OutOrStdout()
			if format == formatEmail {
				if p.json() {
					return writeJSON(out, map[string]string{
						"subject":   export.Subject(doc),
						"body":      export.EmailBody(doc),
						"mailtoUrl": export.MailtoURL(doc, to),
					})
				}
				_, _ = labelColor.Fprintf(out, "Subject: ")
				_, _ = fmt.Fprintln(out, export.Subject(doc))
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, export.EmailBody(doc))
				_, _ = dimColor.Fprintln(out, export.MailtoURL(doc, to))
				return nil
			}

			var body []byte
			switch format {
			case formatPDF:
				body, err = export.PDF(doc)
			case formatICS:
				var text string
				text, err = export.ICS(doc)
				body = []byte(text)
			}
			if err != nil {
				return fmt.Errorf("rendering %s: %w", format, err)
			}

			if toStdout {
				_, err = out.Write(body)
				return err
			}
			if output == "" {
				output = export.Filename(doc.Preferences.Destination, format)
			}
			if err := os.WriteFile(output, body, 0o644); err != nil { //nolint:gosec // user-requested export file
				return fmt.Errorf("writing %s: %w", output, err)
			}
			printSuccess(out, "Wrote "+output)
			return nil
		}),
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", formatPDF, "Export format: pdf, ics, email")
	f.StringVarP(&output, "out", "o", "", "Output file")
	f.BoolVar(&toStdout, "stdout", false, "Write the file contents to stdout")
	f.StringVar(&to, "to", "", "Recipient for the mailto link")
	f.StringVar(&currTo, "currency", "", "Show prices converted to this ISO 4217 currency")
	return cmd
}

// converter fetches rates once. Failures leave prices as generated.
func converter(ctx context.Context, cmd *cobra.Command, b *Backend, target, base string) func(string) string {
	var rates map[string]float64
	if b.Rates != nil && base != "" && !strings.EqualFold(target, base) {
		var err error
		rates, err = b.Rates.Rates(ctx, base)
		if err != nil {
			printWarning(cmd.ErrOrStderr(), "Exchange rates unavailable, showing prices unconverted.")
		}
	}
	return func(price string) string {
		return currency.ConvertPrice(price, target, base, rates)
	}
}
