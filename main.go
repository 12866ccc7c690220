package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"vyas.io/opensesshiame/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "opensesshiame",
		Short: "Allow SSH access to an instance behind an AWS security group from your current location",
	}

	rootCmd.AddCommand(cmd.NewOpenCmd())
	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewRevokeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
