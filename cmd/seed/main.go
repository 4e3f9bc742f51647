package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/SimbaKVis/shift-manager/backend/internal/config"
	"github.com/SimbaKVis/shift-manager/backend/internal/domain"
	"github.com/SimbaKVis/shift-manager/backend/internal/repository"
	"github.com/SimbaKVis/shift-manager/backend/internal/seed"
	"github.com/SimbaKVis/shift-manager/backend/internal/service"
	"github.com/SimbaKVis/shift-manager/backend/internal/utils"
	"github.com/spf13/cobra"
)

type app struct {
	cfg    *config.Config
	dbpool *sql.DB
	svc    *service.Service
	ctx    context.Context
}

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	a := &app{ctx: context.Background()}

	rootCmd := &cobra.Command{
		Use:          "seed",
		Short:        "向数据库中插入测试数据",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.dbpool != nil {
				a.dbpool.Close()
			}
		},
	}

	rootCmd.AddCommand(usersCmd(a))
	rootCmd.AddCommand(shiftTypesCmd(a))
	rootCmd.AddCommand(shiftsCmd(a))
	rootCmd.AddCommand(importShiftsCmd(a))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("执行失败", "error", err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return errors.New("seed 只支持 STORE_DRIVER=postgres")
	}

	dbpool, err := repository.OpenDB(cfg)
	if err != nil {
		return fmt.Errorf("无法连接到数据库: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.dbpool = dbpool
	a.svc = service.New(repository.NewRepository(cfg, dbpool), service.Options{
		Location:                loc,
		MaxRecurringOccurrences: cfg.Scheduling.MaxRecurringOccurrences,
	})
	return nil
}

func usersCmd(a *app) *cobra.Command {
	var n int

	cmd := &cobra.Command{
		Use:   "users",
		Short: "插入随机用户",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 {
				return errors.New("请输入合法的用户数量")
			}

			cnt := 0
			for i := 0; i < n; i++ {
				in := utils.GenerateRandomUser(a.cfg.Seed.User.Password, a.cfg.Email.UserDomain)
				if _, err := a.svc.CreateUser(a.ctx, in); err != nil {
					slog.Error("无法插入用户", "username", in.Username, "error", err)
					continue
				}
				cnt++
			}

			slog.Info("插入用户成功", "count", cnt)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 5, "要插入的用户数量")
	return cmd
}

func shiftTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shift-types",
		Short: "插入默认的班次类型",
		RunE: func(cmd *cobra.Command, args []string) error {
			cnt := 0
			for _, in := range utils.DefaultShiftTypes {
				if _, err := a.svc.CreateShiftType(a.ctx, in); err != nil {
					slog.Error("无法插入班次类型", "name", in.Name, "error", err)
					continue
				}
				cnt++
			}

			slog.Info("插入班次类型成功", "count", cnt)
			return nil
		},
	}
}

func shiftsCmd(a *app) *cobra.Command {
	var n, days int

	cmd := &cobra.Command{
		Use:   "shifts",
		Short: "为随机用户插入随机班次",
		RunE: func(cmd *cobra.Command, args []string) error {
			if n <= 0 || days <= 0 {
				return errors.New("请输入合法的班次数量和天数")
			}

			users, err := a.svc.ListUsers(a.ctx)
			if err != nil {
				return err
			}
			sts, err := a.svc.ListShiftTypes(a.ctx)
			if err != nil {
				return err
			}
			if len(users) == 0 || len(sts) == 0 {
				return errors.New("请先插入用户和班次类型")
			}

			agents := make([]*domain.User, 0, len(users))
			for _, u := range users {
				if u.Role != domain.RoleAdmin {
					agents = append(agents, u)
				}
			}
			if len(agents) == 0 {
				return errors.New("没有可以排班的用户")
			}

			cnt := 0
			from := time.Now()
			for i := 0; i < n; i++ {
				user := agents[rand.Intn(len(agents))]
				st := sts[rand.Intn(len(sts))]

				in := utils.GenerateRandomShift(user.ID, st, from, days)
				if _, err := a.svc.CreateShift(a.ctx, in); err != nil {
					slog.Error("无法插入班次", "error", err)
					continue
				}
				cnt++
			}

			slog.Info("插入班次成功", "count", cnt)
			return nil
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 20, "要插入的班次数量")
	cmd.Flags().IntVar(&days, "days", 14, "班次分布在今天之后的天数")
	return cmd
}

func importShiftsCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "import-shifts",
		Short: "从 CSV 文件导入班次",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("打开文件失败: %w", err)
			}
			defer f.Close()

			// 导入的班次记为由初始管理员分配
			admin, err := a.svc.GetUserByUsername(a.ctx, a.cfg.InitialAdmin.Username)
			if err != nil {
				return fmt.Errorf("无法获取初始管理员: %w", err)
			}

			_, err = seed.ImportShifts(a.ctx, a.svc, f, admin.ID)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV 文件路径")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
