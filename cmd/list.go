package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vyas.io/opensesshiame/internal/reconcile"
)

func NewListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the ingress ranges currently owned by this operator",
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
			if len(owned) == 0 {
				fmt.Printf("no ingress rules owned by %s\n", tag)
				return nil
			}
			for _, rule := range owned {
				fmt.Printf("%s\tports %d-%d\tfrom %s\n",
					rule.Protocol, rule.FromPort, rule.ToPort, rule.Ranges[0].CIDR)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file to use")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
