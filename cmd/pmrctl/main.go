package main

import (
	"github.com/carolinavmo/PMR-atlas/cmd/pmrctl/cmd"
)

func main() {
	rootCmd := cmd.NewRootCmd()
	cmd.NewSeedCmd(rootCmd)
	cmd.NewReconcileCmd(rootCmd)
	cmd.Execute(rootCmd)
}
