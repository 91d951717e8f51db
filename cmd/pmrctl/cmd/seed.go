package cmd

import (
	"github.com/spf13/cobra"

	"github.com/carolinavmo/PMR-atlas/internal/seed"
)

func NewSeedCmd(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Creates the admin account and the starter disease articles",
		Long: `Creates the admin account named by SEED_ADMIN_EMAIL (password from
SEED_ADMIN_PASSWORD or --password) and, when no disease exists yet, a small
set of starter articles authored by that admin. Running it twice is safe.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := connect(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			admin := seed.Admin{
				Email:    a.Config.Seed.AdminEmail,
				Password: a.Config.Seed.AdminPassword,
				Name:     a.Config.Seed.AdminName,
			}
			if v, _ := cmd.Flags().GetString("email"); v != "" {
				admin.Email = v
			}
			if v, _ := cmd.Flags().GetString("password"); v != "" {
				admin.Password = v
			}

			res, err := seed.Run(cmd.Context(), a.Users, a.Editor, admin)
			if err != nil {
				return err
			}
			cmd.Printf("admin %s created=%v, diseases seeded: %d\n", admin.Email, res.AdminCreated, res.Diseases)
			return nil
		},
	}
	parent.AddCommand(cmd)

	cmd.Flags().String("email", "", "admin email (default SEED_ADMIN_EMAIL)")
	cmd.Flags().String("password", "", "admin password (default SEED_ADMIN_PASSWORD)")
}
