package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vofmun/registrar/internal/infrastructure/sqlite"
)

var registrationsCmd = &cobra.Command{
	Use:   "registrations",
	Short: "Inspect committed registrations",
}

var registrationsListLimit int

var registrationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent registrations",
	Long: `List committed registrations, newest first.

Reads the configured database (database.path).`,
	RunE: runRegistrationsList,
}

func init() {
	rootCmd.AddCommand(registrationsCmd)
	registrationsCmd.AddCommand(registrationsListCmd)

	registrationsListCmd.Flags().IntVar(&registrationsListLimit, "limit", 20, "Maximum registrations to show")
}

func runRegistrationsList(cmd *cobra.Command, _ []string) error {
	db, err := sqlite.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	regs, err := db.RegistrationRepository().ListRecent(context.Background(), registrationsListLimit)
	if err != nil {
		return fmt.Errorf("listing registrations: %w", err)
	}

	for _, r := range regs {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%-8s\t%s %s\t%s\t%s\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Role, r.FirstName, r.LastName, r.Email, r.PaymentStatus)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d registrations\n", len(regs))
	return nil
}
