package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/hireloop-dev/recruit-manager/backend/internal/config"
	"github.com/hireloop-dev/recruit-manager/backend/internal/repository"
	"github.com/hireloop-dev/recruit-manager/backend/internal/seed"
	"github.com/hireloop-dev/recruit-manager/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var companyID int64
	var approverID int64

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机用户, 2: 插入随机工作流, 3: 插入随机岗位, 4: 插入演示数据)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.Int64Var(&companyID, "company-id", 1, "插入数据所属的公司 ID")
	flag.Int64Var(&approverID, "approver-id", 1, "演示数据中审批岗位的用户 ID")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			slog.Error("请输入合法的用户数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				user, err := utils.GenerateRandomUser(cfg.Seed.User.Password, cfg.Seed.User.EmailDomain)
				if err != nil {
					slog.Error("无法生成随机用户", slog.String("error", err.Error()))
					continue
				}

				if err := repo.CreateUser(user); err != nil {
					slog.Error("无法插入用户", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入用户成功", slog.Int("count", n-cnt))
		}
	case 2:
		if n <= 0 {
			slog.Error("请输入合法的工作流数量")
		} else {
			cnt := n
			for i := 0; i < n; i++ {
				workflow := utils.GenerateRandomWorkflow(companyID)
				if err := repo.CreateWorkflow(workflow); err != nil {
					slog.Error("无法插入工作流", slog.String("error", err.Error()))
					continue
				}

				cnt--
			}

			slog.Info("插入工作流成功", slog.Int("count", n-cnt))
		}
	case 3:
		if n <= 0 {
			slog.Error("请输入合法的岗位数量")
			return
		}

		// 先获取公司下所有的工作流
		workflows, err := repo.GetAllWorkflowsByCompanyID(companyID)
		if err != nil {
			slog.Error("无法获取工作流列表", slog.String("error", err.Error()))
			return
		}
		if len(workflows) == 0 {
			slog.Error("公司下没有任何工作流，请先插入工作流")
			return
		}

		cnt := n
		for i := 0; i < n; i++ {
			// 随机选一个工作流
			workflow := workflows[rand.Intn(len(workflows))]

			position := utils.GenerateRandomJobPosition(companyID, workflow)
			if err := repo.CreateJobPosition(position); err != nil {
				slog.Error("无法插入岗位", slog.String("error", err.Error()))
				continue
			}

			cnt--
		}

		slog.Info("插入岗位成功", slog.Int("count", n-cnt))
	case 4:
		seed.SeedDemoData(repo, companyID, approverID)
	default:
		slog.Error("指定的操作非法")
	}
}
