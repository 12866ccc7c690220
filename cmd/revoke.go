package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vyas.io/opensesshiame/internal/reconcile"
)

func NewRevokeCmd() *cobra.Command {
	var configPath string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke this operator's ingress ranges without reauthorizing",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := newEnv(ctx, configPath)
			if err != nil {
				return err
			}

			tag, err := env.IAM.ResolveIdentityTag(ctx, env.cfg.IAMUsername)
			if err != nil {
				return err
			}

			rules, err := env.EC2.ListRules(ctx)
			if err != nil {
				return err
			}

			owned := reconcile.OwnedRules(rules, tag)
			if verbose {
				for _, rule := range owned {
					fmt.Printf("revoking: access to ports %d-%d from %s\n",
						rule.FromPort, rule.ToPort, rule.Ranges[0].CIDR)
				}
			}

			if err := env.EC2.RevokeRules(ctx, owned); err != nil {
				return err
			}
			fmt.Printf("revoked %d range(s) owned by %s\n", len(owned), tag)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file to use")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print additional information")

	return cmd
}
