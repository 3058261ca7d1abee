package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/telnyx/telnyx-cli/config"
	"github.com/telnyx/telnyx-cli/output"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage configuration profiles",
		Long: `Manage configuration profiles.

Profiles store an API key each. Select one per command with --profile
or TELNYX_PROFILE; otherwise the default profile is used.`,
	}
	cmd.AddCommand(newProfileListCmd(), newProfileUseCmd(), newProfileDeleteCmd())
	return cmd
}

var profileColumns = output.Columns(
	"name", "NAME",
	"default", "DEFAULT",
	"api_key", "API KEY",
)

func newProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List configured profiles",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			cfg, err := a.store.Load()
			if err != nil {
				return err
			}
			names := cfg.ProfileNames()

			if a.tableOnly() && len(names) == 0 {
				a.linef("No profiles configured.")
				a.linef("")
				a.linef(`Run "telnyx auth setup" to create a profile.`)
				return nil
			}

			records := make([]output.Record, 0, len(names))
			for _, name := range names {
				def := ""
				if name == cfg.DefaultProfile {
					def = "*"
				}
				records = append(records, output.NewRecord(
					"name", name,
					"default", def,
					"api_key", config.MaskAPIKey(cfg.Profiles[name].APIKey),
				))
			}

			raw := map[string]any{
				"profiles":       names,
				"defaultProfile": cfg.DefaultProfile,
				"configPath":     a.store.Path(),
			}
			if err := a.render(records, profileColumns, raw); err != nil {
				return err
			}

			if a.tableOnly() {
				a.linef("")
				a.linef("Config: %s", a.store.Path())
			}
			return nil
		},
	}
}

func newProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <name>",
		Short: "Set the default profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}

			if err := a.store.SetDefaultProfile(args[0]); err != nil {
				return err
			}
			a.ui.Success("Default profile set to %q", args[0])
			return nil
		},
	}
}

func newProfileDeleteCmd() *cobra.Command {
	var d *destructiveFlags

	cmd := &cobra.Command{
		Use:     "delete <name>",
		Aliases: []string{"rm"},
		Short:   "Delete a profile",
		Long: `Delete a profile.

The only remaining profile cannot be deleted. When the default profile is
deleted, another profile becomes the default.

Examples:
  telnyx profile delete staging --force
  telnyx profile delete old-profile --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := appFromContext(cmd.Context())
			if err != nil {
				return err
			}
			name := args[0]

			cfg, err := a.store.Load()
			if err != nil {
				return err
			}
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			if len(cfg.Profiles) == 1 {
				return errors.New("cannot delete the only remaining profile\n" +
					"Create another profile first with: telnyx auth setup --profile <name>")
			}

			isDefault := name == cfg.DefaultProfile

			if d.dryRun {
				a.ui.DryRun("Would delete profile %q", name)
				if isDefault {
					a.ui.DryRun("A new default profile would be selected automatically")
				}
				return nil
			}

			label := fmt.Sprintf("Delete profile %q", name)
			if isDefault {
				label += " (this is your default profile)"
			}
			if err := d.confirm(a, label); err != nil {
				return err
			}

			if err := a.store.DeleteProfile(name); err != nil {
				return err
			}
			a.ui.Success("Profile %q deleted", name)

			if isDefault {
				newDefault, err := a.store.DefaultProfile()
				if err != nil {
					return err
				}
				a.ui.Info("Default profile is now %q", newDefault)
			}
			return nil
		},
	}

	d = addDestructiveFlags(cmd)
	return cmd
}
