package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"umuganda/backend/pkg/database"
)

func init() {
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "管理数据库结构与徽章目录",
	Long: `执行内置的 SQL 迁移（表结构、索引与徽章目录种子数据）。

Examples:
  # 迁移到最新版本
  umuganda migrate up

  # 回滚最近一次迁移
  umuganda migrate down 1`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "迁移到最新版本",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB(db)

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return database.RunMigrations(sqlDB, logger)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "回滚指定步数（默认 1）",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("步数必须为整数: %w", err)
			}
			steps = n
		}

		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		db, err := openDB(cfg, logger)
		if err != nil {
			return err
		}
		defer closeDB(db)

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return database.RollbackMigrations(sqlDB, steps, logger)
	},
}
