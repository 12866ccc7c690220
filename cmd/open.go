package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	awsclient "vyas.io/opensesshiame/internal/aws"
	"vyas.io/opensesshiame/internal/ipecho"
	"vyas.io/opensesshiame/internal/reconcile"
)

func NewOpenCmd() *cobra.Command {
	var configPath string
	var verbose bool
	var port int32
	var order string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Replace this operator's ingress rule with one for the current public address",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := newEnv(ctx, configPath)
			if err != nil {
				return err
			}

			if verbose {
				if arn := awsclient.GetCallerARN(ctx, env.awsCfg); arn != "" {
					fmt.Printf("running as %s\n", arn)
				}
			}

			rec := &reconcile.Reconciler{
				Identity: env.IAM,
				Address:  ipecho.NewClient("", nil),
				Store:    env.EC2,
				Username: env.cfg.IAMUsername,
				Port:     env.cfg.MergePort(port),
				Order:    reconcile.Order(order),
			}
			if verbose {
				rec.Logf = func(format string, args ...any) {
					fmt.Printf(format+"\n", args...)
				}
			}

			res, err := rec.Run(ctx)
			if err != nil {
				return err
			}
			if verbose {
				fmt.Printf("revoked %d range(s); ingress for %s now allowed from %s\n",
					res.Revoked, res.Tag, res.Address)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Configuration file to use")
	_ = cmd.MarkFlagRequired("config")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print additional information")
	cmd.Flags().Int32Var(&port, "port", 0, "Port to allow ingress to (overrides config; default 22)")
	cmd.Flags().StringVar(&order, "order", string(reconcile.OrderAuthorizeFirst),
		"Ordering policy: authorize-first or revoke-first")

	return cmd
}
