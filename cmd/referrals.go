package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vofmun/registrar/internal/referral"
)

var referralsCmd = &cobra.Command{
	Use:   "referrals",
	Short: "Inspect the referral code registry",
}

var referralsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all referral codes and their owners",
	Long: `List every referral code in the active registry in registry order.

Reads the configured registry file (referral.file) or the compiled-in
registry when none is configured.`,
	RunE: runReferralsList,
}

func init() {
	rootCmd.AddCommand(referralsCmd)
	referralsCmd.AddCommand(referralsListCmd)
}

func runReferralsList(cmd *cobra.Command, _ []string) error {
	var registry *referral.Registry
	if cfg.Referral.File != "" {
		var err error
		registry, err = referral.LoadRegistry(cfg.Referral.File)
		if err != nil {
			return fmt.Errorf("loading referral registry: %w", err)
		}
	} else {
		registry = referral.DefaultRegistry()
	}

	for _, e := range registry.Entries() {
		if e.Owner != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.Code, e.Owner)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), e.Code)
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d codes\n", registry.Len())
	return nil
}
