package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/config"
	"github.com/telnyx/telnyx-cli/output"
)

// commandGroups lists the resource nouns in the order help shows them.
var commandGroups = []func() *cobra.Command{
	newAuthCmd,
	newProfileCmd,
	newBillingCmd,
	newNumberCmd,
	newLookupCmd,
	newMessageCmd,
	newMessagingProfileCmd,
	newCallCmd,
	newVerifyCmd,
	newVideoCmd,
	newSIMCmd,
	newTenDLCCmd,
	newStorageCmd,
	newAICmd,
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "telnyx",
		Version: version,
		Short:   "Command-line interface for the Telnyx platform",
		Long: `Command-line interface for the Telnyx communications platform.

Commands follow a "noun verb" pattern, for example:
  telnyx number list
  telnyx message send --from +15551234567 --to +15559876543 --text "Hello"

Authenticate with "telnyx auth setup" or export TELNYX_API_KEY.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 3,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.LoadSettings(cmd.Flags())
			if err != nil {
				return err
			}

			ctx := config.WithContext(cmd.Context(), s)
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			cmd.SetContext(withApp(ctx, a))
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringP("profile", "p", "", "config profile to use (env: TELNYX_PROFILE)")
	flags.StringP("output", "o", "", "output format: "+strings.Join(output.SupportedFormats(), ", ")+" (env: TELNYX_OUTPUT)")
	flags.Bool("json", false, "output raw JSON (same as --output json)")
	flags.BoolP("verbose", "v", false, "show API requests and responses")
	flags.String("config", "", "config file path (default: ~/.config/telnyx/config.json, env: TELNYX_CONFIG)")
	flags.String("log-level", "", "log level: debug, info, warn, error (env: TELNYX_LOG_LEVEL)")
	flags.String("api-url", "", "override the API base URL (env: TELNYX_API_URL)")
	flags.String("tendlc-url", "", "override the 10DLC API base URL (env: TELNYX_TENDLC_URL)")
	flags.String("storage-url", "", "override the storage endpoint (env: TELNYX_STORAGE_URL)")
	flags.String("storage-region", "", "override the storage region (env: TELNYX_STORAGE_REGION)")
	for _, name := range []string{"api-url", "tendlc-url", "storage-url", "storage-region"} {
		_ = flags.MarkHidden(name)
	}

	for _, group := range commandGroups {
		cmd.AddCommand(group())
	}

	return cmd
}

// destructiveFlags are shared by commands that delete or modify resources.
type destructiveFlags struct {
	force  bool
	dryRun bool
}

func addDestructiveFlags(cmd *cobra.Command) *destructiveFlags {
	d := &destructiveFlags{}
	cmd.Flags().BoolVarP(&d.force, "force", "f", false, "skip confirmation prompt")
	cmd.Flags().BoolVar(&d.dryRun, "dry-run", false, "show what would happen without making changes")
	return d
}

// confirm asks before a destructive action unless --force was given.
func (d *destructiveFlags) confirm(a *app, label string) error {
	if d.force {
		return nil
	}
	return a.confirm(label)
}
