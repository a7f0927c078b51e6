package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"dns01-hook/internal/config"
	"dns01-hook/internal/core"
)

type runFunc func(ctx context.Context, configPath string, op core.Operation) error

// newRootCommand 每个钩子操作对应一个子命令
//
// 错误只通过 logrus 输出一次，cobra 本身不打印错误。
// 子命令遇到第一个位置参数后停止解析参数，以 - 开头的 token 原样传入。
func newRootCommand(run runFunc) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "dns01-hook",
		Short: "DNS-01 验证钩子",
		Long: `DNS-01 验证钩子：发布 _acme-challenge TXT 记录，等待 Zone 发布和 DNS 传播，
验证完成后删除记录。

配置来源 (优先级从低到高): 默认值, YAML 配置文件, .env, 环境变量。
配置文件路径: --config 或 ` + config.EnvConfigPath + `。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			err := fmt.Errorf("%w: %s", core.ErrUnknownOperation, args[0])
			logrus.Error(err)
			return err
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径")
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		logrus.Errorf("%s: %v", cmd.Name(), err)
		return err
	})

	hook := func(use, short string, args cobra.PositionalArgs, build func(args []string) core.Operation) *cobra.Command {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  logArgs(args),
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd.Context(), configPath, build(args))
			},
		}
		cmd.Flags().SetInterspersed(false)
		return cmd
	}

	root.AddCommand(
		hook("deploy_challenge <domain> <token_filename> <token>", "创建TXT记录并等待生效",
			cobra.ExactArgs(3), func(args []string) core.Operation {
				return core.DeployChallenge{Domain: args[0], TokenFilename: args[1], Token: args[2]}
			}),
		hook("clean_challenge <domain> <token_filename> <token>", "删除TXT记录",
			cobra.ExactArgs(3), func(args []string) core.Operation {
				return core.CleanChallenge{Domain: args[0], TokenFilename: args[1], Token: args[2]}
			}),
		hook("deploy_cert <domain> <keyfile> <certfile> <fullchainfile> <chainfile> <timestamp>", "证书已签发",
			cobra.ExactArgs(6), func(args []string) core.Operation {
				return core.DeployCert{
					Domain:        args[0],
					KeyFile:       args[1],
					CertFile:      args[2],
					FullchainFile: args[3],
					ChainFile:     args[4],
					Timestamp:     args[5],
				}
			}),
		hook("unchanged_cert [args...]", "证书未变化，不做任何事",
			cobra.ArbitraryArgs, func(args []string) core.Operation {
				return core.UnchangedCert{Args: args}
			}),
	)

	return root
}

// logArgs 参数校验失败时记录日志
func logArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			logrus.Errorf("%s: %v", cmd.Name(), err)
			return err
		}
		return nil
	}
}
