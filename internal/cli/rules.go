package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arnavshah/capacity-planner-api/pkg/capacity"
	"github.com/arnavshah/capacity-planner-api/pkg/holidays"
)

func newRulesCmd(open storeOpener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or change the capacity rules",
	}
	cmd.AddCommand(newRulesShowCmd(open))
	cmd.AddCommand(newImportHolidaysCmd(open))
	return cmd
}

func newRulesShowCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored rules document as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := open()
			if err != nil {
				return err
			}
			defer closeStore()

			rules, err := store.GetRules(cmd.Context())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rules)
		},
	}
}

func newImportHolidaysCmd(open storeOpener) *cobra.Command {
	var (
		hours   float64
		staffID uint
	)

	cmd := &cobra.Command{
		Use:   "import-holidays <file.ics>",
		Short: "Merge the all-day events of an iCalendar file into the exceptions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts holidays.Options
			if cmd.Flags().Changed("hours") {
				if hours < 0 || hours > 24 {
					return fmt.Errorf("--hours must be between 0 and 24")
				}
				opts.Hours = &hours
			}
			if cmd.Flags().Changed("staff-id") {
				if staffID == 0 {
					return fmt.Errorf("--staff-id must be positive")
				}
				opts.StaffID = &staffID
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			imported, err := holidays.Parse(f, opts)
			if err != nil {
				return err
			}

			store, closeStore, err := open()
			if err != nil {
				return err
			}
			defer closeStore()

			rules, err := store.GetRules(cmd.Context())
			if err != nil {
				return err
			}
			rules.Exceptions = holidays.Merge(rules.Exceptions, imported)
			if err := capacity.ValidateRules(rules); err != nil {
				return err
			}
			if err := store.SaveRules(cmd.Context(), rules); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d exception days, %d total\n", len(imported), len(rules.Exceptions))
			return nil
		},
	}
	cmd.Flags().Float64Var(&hours, "hours", 0, "Hours left available on each imported day")
	cmd.Flags().UintVar(&staffID, "staff-id", 0, "Limit the exceptions to one staff member")
	return cmd
}
