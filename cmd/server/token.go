package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"umuganda/backend/internal/model"
	"umuganda/backend/internal/repository"
	"umuganda/backend/pkg/jwt"
)

var (
	tokenUserID uint
	tokenPhone  string
	tokenTTL    time.Duration
)

func init() {
	issueTokenCmd.Flags().UintVar(&tokenUserID, "user-id", 0, "用户 ID")
	issueTokenCmd.Flags().StringVar(&tokenPhone, "phone", "", "用户手机号")
	issueTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "令牌有效期")
	issueTokenCmd.MarkFlagsOneRequired("user-id", "phone")
	issueTokenCmd.MarkFlagsMutuallyExclusive("user-id", "phone")
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue-token",
	Short: "为指定用户签发 Access Token（运维与联调用）",
	Long: `按数据库中的用户记录签发 Access Token，角色取自用户表。

Examples:
  umuganda issue-token --phone +250788000001
  umuganda issue-token --user-id 4 --ttl 10m`,
	Args: cobra.NoArgs,
	RunE: runIssueToken,
}

func runIssueToken(cmd *cobra.Command, _ []string) error {
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

	repo := repository.NewRepository(db)
	ctx := cmd.Context()

	var user *model.User
	if tokenPhone != "" {
		user, err = repo.User.GetByPhone(ctx, tokenPhone)
	} else {
		user, err = repo.User.GetByID(ctx, tokenUserID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("用户不存在")
		}
		return err
	}
	if !user.Role.Valid() {
		return fmt.Errorf("用户角色无效: %q", user.Role)
	}

	token, err := jwt.NewManager(&cfg.Auth).GenerateAccessTokenWithTTL(user.UserID, string(user.Role), tokenTTL)
	if err != nil {
		return fmt.Errorf("签发令牌失败: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
