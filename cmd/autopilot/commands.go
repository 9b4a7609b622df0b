package main

import (
	"BuzzDaddy/internal/api/config"
	"BuzzDaddy/internal/pkg/consts"
	"BuzzDaddy/internal/pkg/database"
	"BuzzDaddy/internal/pkg/security"
	"BuzzDaddy/internal/service"
	"BuzzDaddy/internal/wire"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbCfg := config.Cfg.DB
		db, err := database.NewGormDB(&dbCfg)
		if err != nil {
			return err
		}
		if err = database.Migrate(db); err != nil {
			return err
		}
		fmt.Println("✓ Database migrated")
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch, filter and draft comments for one campaign",
	Long: `Search every keyword on the enabled platforms, filter the results with the LLM,
store relevant posts as PENDING and generate one comment per post.

Examples:
  autopilot fetch --campaign 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignID, _ := cmd.Flags().GetUint64("campaign")
		return withApp(func(ctx context.Context, svc service.AutopilotService) error {
			report, err := svc.RunFetch(ctx, campaignID)
			if err != nil {
				return err
			}
			return printResult(report, func() {
				fmt.Printf("Campaign %d: fetched %d, kept %d, saved %d, comments %d\n",
					report.CampaignID, report.Fetched, report.Kept, report.Saved, report.Comments)
				for _, msg := range report.Errors {
					fmt.Printf("  ! %s\n", msg)
				}
			})
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish pending comments for one campaign",
	Long: `Publish PENDING comments within the daily reply limit and platform rate limits.

Examples:
  autopilot post --campaign 12`,
	RunE: func(cmd *cobra.Command, args []string) error {
		campaignID, _ := cmd.Flags().GetUint64("campaign")
		return withApp(func(ctx context.Context, svc service.AutopilotService) error {
			report, err := svc.RunPost(ctx, campaignID)
			if err != nil {
				return err
			}
			return printResult(report, func() {
				fmt.Printf("Campaign %d: posted %d, failed %d, skipped %d\n",
					report.CampaignID, report.Posted, report.Failed, report.Skipped)
				for name, reason := range report.Blocked {
					fmt.Printf("  ! %s blocked: %s\n", name, reason)
				}
			})
		})
	},
}

var runAllCmd = &cobra.Command{
	Use:   "run-all",
	Short: "Run a stage for every autopilot campaign",
	Long: `Dispatch a stage for every ACTIVE campaign with autopilot enabled.
When kafka.enable is set the tasks are queued instead of executed here.

Examples:
  autopilot run-all --stage fetch
  autopilot run-all --stage post --output json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		stage, _ := cmd.Flags().GetString("stage")
		if stage != consts.StageFetch && stage != consts.StagePost {
			return fmt.Errorf("--stage must be %q or %q", consts.StageFetch, consts.StagePost)
		}
		return withApp(func(ctx context.Context, svc service.AutopilotService) error {
			report, err := svc.RunAll(ctx, stage)
			if err != nil {
				return err
			}
			return printResult(report, func() {
				fmt.Printf("Stage %s: %d campaigns, %d succeeded, %d failed\n",
					report.Stage, report.Total, report.Succeeded, report.Failed)
				for _, result := range report.Results {
					fmt.Printf("  [%s] %s\n", result.Type, result.Message)
				}
			})
		})
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a dashboard JWT for a user id (local testing)",
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, _ := cmd.Flags().GetUint64("user")
		mail, _ := cmd.Flags().GetString("email")
		if userID == 0 {
			return errors.New("--user is required")
		}
		security.InitJWT(config.Cfg.Security.JWTSecret)
		token, err := security.GenerateToken(userID, mail)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	fetchCmd.Flags().Uint64("campaign", 0, "Campaign id")
	_ = fetchCmd.MarkFlagRequired("campaign")
	postCmd.Flags().Uint64("campaign", 0, "Campaign id")
	_ = postCmd.MarkFlagRequired("campaign")
	runAllCmd.Flags().String("stage", consts.StageFetch, "Stage to run: fetch or post")
	tokenCmd.Flags().Uint64("user", 0, "User id")
	tokenCmd.Flags().String("email", "", "Email claim")
}

// withApp 组装完整依赖后执行，Ctrl+C 取消当前运行
func withApp(run func(ctx context.Context, svc service.AutopilotService) error) error {
	cfg := config.Cfg
	infra, err := wire.InitInfrastructure(cfg)
	if err != nil {
		return err
	}
	defer infra.Close()

	app, err := wire.BuildApplication(infra, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, app.AutopilotSvc)
}

func printResult(v any, text func()) error {
	if output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
	text()
	return nil
}
