package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the assistant profile",
	Long: `Without flags, prints the stored assistant profile as JSON. Any flag updates the
matching field and stores the profile; the other fields are kept.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		editor, logger, release, err := openEditor(ctx, cmd)
		if err != nil {
			return err
		}
		defer release()

		if err := editor.Profiles().Load(ctx); err != nil {
			logger.Debug("no stored profile", "error", err)
		}
		p := editor.Profile(ctx)

		changed := false
		for flag, field := range map[string]*string{
			"name":       &p.Name,
			"profession": &p.Profession,
			"company":    &p.Company,
			"contacts":   &p.Contacts,
			"guidelines": &p.Guidelines,
			"avatar":     &p.Avatar,
		} {
			if cmd.Flags().Changed(flag) {
				*field, _ = cmd.Flags().GetString(flag)
				changed = true
			}
		}
		if cmd.Flags().Changed("script-guideline") {
			p.ScriptGuidelines, _ = cmd.Flags().GetStringArray("script-guideline")
			changed = true
		}

		if changed {
			if p, err = editor.SetProfile(ctx, p); err != nil {
				return fmt.Errorf("failed to store profile: %w", err)
			}
		}

		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)

	profileCmd.Flags().String("name", "", "Assistant name")
	profileCmd.Flags().String("profession", "", "Professional area")
	profileCmd.Flags().String("company", "", "Company name")
	profileCmd.Flags().String("contacts", "", "Contact details shown in the script")
	profileCmd.Flags().String("guidelines", "", "Free-form behaviour guidelines")
	profileCmd.Flags().String("avatar", "", "Avatar URL or data URI")
	profileCmd.Flags().StringArray("script-guideline", nil, "Script guideline (repeatable; replaces the list)")
}
