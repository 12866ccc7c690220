package cmd

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdkec2 "github.com/aws/aws-sdk-go-v2/service/ec2"
	sdkiam "github.com/aws/aws-sdk-go-v2/service/iam"

	awsclient "vyas.io/opensesshiame/internal/aws"
	awsec2 "vyas.io/opensesshiame/internal/aws/ec2"
	awsiam "vyas.io/opensesshiame/internal/aws/iam"
	"vyas.io/opensesshiame/internal/config"
)

// env bundles the per-run configuration and the AWS capability clients. Each
// command builds one env, uses it for a single pass, and discards it.
type env struct {
	cfg    *config.Config
	awsCfg aws.Config
	IAM    *awsiam.Client
	EC2    *awsec2.Client
}

func newEnv(ctx context.Context, configPath string) (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	awsCfg, err := awsclient.LoadConfig(ctx, cfg.AccessKeyID, cfg.SecretAccessKey, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("initializing AWS session: %w", err)
	}

	return &env{
		cfg:    cfg,
		awsCfg: awsCfg,
		IAM:    awsiam.NewClient(sdkiam.NewFromConfig(awsCfg)),
		EC2:    awsec2.NewClient(sdkec2.NewFromConfig(awsCfg), cfg.SecurityGroupID),
	}, nil
}
