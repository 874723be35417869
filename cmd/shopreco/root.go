package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rushteam/shopreco/catalog"
	"github.com/rushteam/shopreco/config"
	"github.com/rushteam/shopreco/pkg/logging"
	"github.com/rushteam/shopreco/service"
)

var (
	cfgFile  string
	logLevel string
	dataFile string
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "shopreco",
	Short: "Product recommendation and semantic search for a shopping assistant",
	Long: `shopreco 对商品目录提供语义搜索、协同过滤、基于内容的推荐、
相似商品、属性过滤与库存问答。

Example usage:
  shopreco seed data.json                       # 导入商品与交互
  shopreco search "shirts under 500"            # 语义搜索
  shopreco recommend --user u1 --strategy hybrid
  shopreco --data data.json similar p1          # memory 后端下先导入再查询`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: os.Stderr})
		return nil
	},
}

// Execute 执行根命令。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: built-in defaults + SHOPRECO_* env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging level")
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "dataset to seed before running the command")
}

// openRecommender 按配置打开服务；指定了 --data 时先导入数据集。
func openRecommender(ctx context.Context) (*service.Recommender, error) {
	r, err := service.Open(ctx, cfg, logging.Component("service"))
	if err != nil {
		return nil, fmt.Errorf("failed to open recommender: %w", err)
	}
	if dataFile != "" {
		if _, _, err := seedFile(ctx, r, dataFile); err != nil {
			_ = r.Close()
			return nil, err
		}
	}
	return r, nil
}

func seedFile(ctx context.Context, r *service.Recommender, path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	ds, err := catalog.ReadDataset(f)
	if err != nil {
		return 0, 0, err
	}
	return r.Seed(ctx, ds)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func logger() zerolog.Logger {
	return logging.Component("cli")
}
