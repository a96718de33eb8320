package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/camden-git/mediapicker/catalog"
)

// NewProviderCommand creates the provider command.
func NewProviderCommand(rootOpts *RootOptions) *cobra.Command {
	var disable bool

	cmd := &cobra.Command{
		Use:   "provider [cloud-authority]",
		Short: "Show or change the active cloud provider",
		Long: `Show or change the active cloud provider.

Switching to a different authority deletes the media of the previous one.
--disable hides cloud media without deleting it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable && len(args) > 0 {
				return fmt.Errorf("--disable does not take an authority")
			}

			s, err := openStack(cmd.Context(), rootOpts, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			switch {
			case disable:
				err = s.Catalog.SetCloudProvider(cmd.Context(), "")
			case len(args) == 1:
				err = s.Catalog.SetCloudProvider(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			state, err := s.Catalog.ProviderState(cmd.Context())
			if err != nil {
				return err
			}
			return writeProviderState(cmd, rootOpts, state)
		},
	}
	cmd.Flags().BoolVar(&disable, "disable", false, "disable cloud media")
	return cmd
}

func writeProviderState(cmd *cobra.Command, opts *RootOptions, state catalog.ProviderState) error {
	if opts.Format == "json" {
		return writeJSONOut(cmd.OutOrStdout(), state)
	}
	cloud := state.CloudAuthority
	if !state.CloudEnabled() {
		cloud = "(disabled)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "local: %s\ncloud: %s\n", state.LocalAuthority, cloud)
	return nil
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset <authority>",
		Short: "Delete every item of an authority",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStack(cmd.Context(), rootOpts, nil)
			if err != nil {
				return err
			}
			defer s.Close()

			deleted, err := s.Catalog.ResetMedia(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if rootOpts.Format == "json" {
				return writeJSONOut(cmd.OutOrStdout(), map[string]interface{}{"authority": args[0], "deleted": deleted})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d item(s) for %s\n", deleted, args[0])
			return nil
		},
	}
	return cmd
}
