package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/navarrastar/portfolio/pkg/models"
	"github.com/navarrastar/portfolio/pkg/storage"
)

func (a *app) newContactsCmd() *cobra.Command {
	contactsCmd := &cobra.Command{
		Use:   "contacts",
		Short: "Inspect stored contact form submissions",
	}
	contactsCmd.AddCommand(a.newContactsListCmd())

	return contactsCmd
}

func (a *app) newContactsListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored contacts, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := storage.Open(cmd.Context(), a.cfg.Storage)
			if err != nil {
				return err
			}
			defer store.Close()

			contacts, err := store.ListContacts(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(contacts)
			}

			return printContacts(cmd.OutOrStdout(), contacts)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print contacts as JSON")

	return cmd
}

func printContacts(w io.Writer, contacts []models.Contact) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tNAME\tEMAIL\tSUBJECT\tMESSAGE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			c.CreatedAt.UTC().Format(time.DateTime),
			c.FullName(),
			c.Email,
			models.Subject(c.Subject).Label,
			preview(c.Message, 40),
		)
	}

	return tw.Flush()
}

// preview shortens s to n runes on one line.
func preview(s string, n int) string {
	runes := []rune(s)
	for i, r := range runes {
		if r == '\n' || r == '\r' || r == '\t' {
			runes[i] = ' '
		}
	}
	if len(runes) <= n {
		return string(runes)
	}

	return string(runes[:n-1]) + "…"
}
