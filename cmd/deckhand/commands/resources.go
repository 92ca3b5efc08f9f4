package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/deckhand-io/deckhand/pkg/dedupe"
)

func newResourcesCommand() *cobra.Command {
	var (
		orgID string
		kind  string
	)

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List deduplicated resources across all docks",
		Long: `List an organization's resources, fanned in from every connected
dock and deduplicated across providers. A server known to both the
infrastructure provider and the management panel appears once, with
both providers attributed.`,
		Example: `  # All servers for an org
  deckhand resources --org org-1 --kind server

  # Domains, as JSON
  deckhand resources --org org-1 --kind domain --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.shutdown(ctx)

			switch kind {
			case "server":
				groups, err := rt.listing.Servers(ctx, orgID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(groups)
				}
				return printServers(groups)
			case "domain":
				groups, err := rt.listing.Domains(ctx, orgID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return printJSON(groups)
				}
				return printDomains(groups)
			case "web-service":
				services, err := rt.listing.WebServices(ctx, orgID)
				if err != nil {
					return err
				}
				return printJSON(services)
			case "database":
				databases, err := rt.listing.Databases(ctx, orgID)
				if err != nil {
					return err
				}
				return printJSON(databases)
			default:
				return fmt.Errorf("unknown resource kind: %s", kind)
			}
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	cmd.Flags().StringVar(&kind, "kind", "server", "resource kind (server, domain, web-service, database)")
	_ = cmd.MarkFlagRequired("org")

	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printServers(groups []dedupe.DeduplicatedServer) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tIP\tPROVIDERS\tRECORDS")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n",
			g.Name, g.PrimaryIP, strings.Join(g.Providers, ","), len(g.OriginalIDs))
	}
	return w.Flush()
}

func printDomains(groups []dedupe.DeduplicatedDomain) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOSTNAME\tPROVIDERS\tRECORDS")
	for _, g := range groups {
		fmt.Fprintf(w, "%s\t%s\t%d\n",
			g.Hostname, strings.Join(g.Providers, ","), len(g.OriginalIDs))
	}
	return w.Flush()
}
