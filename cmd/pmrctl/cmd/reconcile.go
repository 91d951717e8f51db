package cmd

import (
	"github.com/spf13/cobra"
)

func NewReconcileCmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Appends journaled version-history entries to the history log",
		Long: `History entries that could not be appended when a disease was saved are
kept in the pending journal (Redis list history:pending). reconcile drains
that journal once and reports how many entries were written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			pending, err := a.Journal.Len(cmd.Context())
			if err != nil {
				return err
			}
			n, err := a.Reconciler.Drain(cmd.Context())
			cmd.Printf("pending: %d, reconciled: %d\n", pending, n)
			return err
		},
	}
	parent.AddCommand(cmd)
}
