package commands

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/deckhand-io/deckhand/pkg/engine"
	"github.com/deckhand-io/deckhand/pkg/provisioning"
)

func newProvisionCommand() *cobra.Command {
	var (
		orgID    string
		dockID   string
		provider string
		kind     string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a resource through a dock",
		Long: `Run one provisioning attempt end to end: fill the form from --set
fields, validate the spec, submit it, and follow the attempt until it
settles.`,
		Example: `  # Provision a server
  deckhand provision --org org-1 --dock dock-1 --provider vultr \
    --kind server --set name=web-1 --set region=ams

  # Provision a domain
  deckhand provision --org org-1 --dock dock-2 --provider cloudflare \
    --kind domain --set hostname=example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			spec, err := parseFields(fields)
			if err != nil {
				return err
			}

			rt, err := newRuntime(ctx)
			if err != nil {
				return err
			}
			defer rt.shutdown(ctx)

			machine := rt.manager.Begin(ctx, orgID)
			machine.Send(ctx, provisioning.SetTarget(dockID, provider, engine.ResourceKind(kind)))
			machine.Send(ctx, provisioning.FillForm(spec))
			if !machine.Send(ctx, provisioning.Submit()) {
				return fmt.Errorf("submission rejected: target or spec is incomplete")
			}

			log.Info().
				Str("session", machine.ID()).
				Str("provider", provider).
				Str("kind", kind).
				Msg("Provisioning submitted")

			final := machine.RunToCompletion(ctx, rt.cfg.Provisioning.PollInterval)
			mctx := machine.Context()

			switch final {
			case provisioning.StateSuccess:
				log.Info().
					Str("resource_id", mctx.ResourceID).
					Str("provisioning_id", mctx.ProvisioningID).
					Msg("Provisioning succeeded")
				if jsonOutput {
					return printJSON(mctx)
				}
				fmt.Printf("created %s %s (resource %s)\n", provider, kind, mctx.ResourceID)
				return nil
			case provisioning.StateCancelled:
				return fmt.Errorf("provisioning cancelled")
			default:
				return fmt.Errorf("provisioning stopped in %s: %s", final, mctx.Error)
			}
		},
	}

	cmd.Flags().StringVar(&orgID, "org", "", "organization ID")
	cmd.Flags().StringVar(&dockID, "dock", "", "dock (provider account) ID")
	cmd.Flags().StringVar(&provider, "provider", "", "provider name")
	cmd.Flags().StringVar(&kind, "kind", "server", "resource kind to create")
	cmd.Flags().StringArrayVar(&fields, "set", nil, "spec field as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("dock")
	_ = cmd.MarkFlagRequired("provider")

	return cmd
}

// parseFields turns --set key=value pairs into a spec.
func parseFields(fields []string) (engine.Spec, error) {
	spec := make(engine.Spec, len(fields))
	for _, f := range fields {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q, want key=value", f)
		}
		spec[key] = value
	}
	return spec, nil
}
