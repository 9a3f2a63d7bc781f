package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"jobboard/internal/account"
	"jobboard/internal/config"
	"jobboard/internal/database"
	"jobboard/internal/jobs"
)

func main() {
	var (
		email      = flag.String("email", "", "目标账号邮箱（账号操作必填）")
		activate   = flag.Bool("activate", false, "启用账号")
		deactivate = flag.Bool("deactivate", false, "停用账号")
		verify     = flag.Bool("verify", false, "跳过验证码直接标记为已验证")
		feature    = flag.Uint("feature-listing", 0, "将指定 ID 的职位设为首页推荐")
		unfeature  = flag.Uint("unfeature-listing", 0, "取消指定 ID 职位的首页推荐")
		dbHost     = flag.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
		dbPort     = flag.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
		dbName     = flag.String("db-name", "", "数据库名（可选，默认读 POSTGRES_DB）")
		dbUser     = flag.String("db-user", "", "数据库用户（可选，默认读 POSTGRES_USER）")
		dbPass     = flag.String("db-password", "", "数据库密码（可选，默认读 POSTGRES_PASSWORD）")
		sslMode    = flag.String("db-sslmode", "", "数据库 SSLMODE（可选，默认读 DATABASE_SSLMODE）")
	)
	flag.Parse()

	target := strings.TrimSpace(*email)
	accountOp := *activate || *deactivate || *verify
	if accountOp && target == "" {
		log.Fatal("missing required flag: --email")
	}
	if *activate && *deactivate {
		log.Fatal("--activate and --deactivate are mutually exclusive")
	}
	if *feature != 0 && *unfeature != 0 {
		log.Fatal("--feature-listing and --unfeature-listing are mutually exclusive")
	}
	if !accountOp && *feature == 0 && *unfeature == 0 {
		log.Fatal("nothing to do: pass --activate, --deactivate, --verify, --feature-listing or --unfeature-listing")
	}

	dbCfg, err := loadDatabaseConfig(*dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)
	if err != nil {
		log.Fatalf("load database config: %v", err)
	}

	db, err := database.InitDatabase(dbCfg)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("auto migrate: %v", err)
	}

	accounts := account.NewService(account.Deps{DB: db})
	ctx := context.Background()

	if *activate || *deactivate {
		if err := accounts.SetActive(ctx, target, *activate); err != nil {
			log.Fatalf("set active: %v", err)
		}
		state := "停用"
		if *activate {
			state = "启用"
		}
		fmt.Printf("账号 %s 已%s\n", target, state)
	}
	if *verify {
		if err := accounts.MarkVerified(ctx, target); err != nil {
			log.Fatalf("mark verified: %v", err)
		}
		fmt.Printf("账号 %s 已标记为已验证\n", target)
	}

	if id, featured := listingFlag(*feature, *unfeature); id != 0 {
		listings := jobs.NewService(jobs.Deps{DB: db})
		if err := listings.SetFeatured(ctx, id, featured); err != nil {
			log.Fatalf("set featured: %v", err)
		}
		fmt.Printf("职位 %d 首页推荐: %t\n", id, featured)
	}
}

func listingFlag(feature, unfeature uint) (uint, bool) {
	if feature != 0 {
		return feature, true
	}
	return unfeature, false
}

func loadDatabaseConfig(host string, port int, name, user, password, sslmode string) (config.DatabaseConfig, error) {
	if strings.TrimSpace(host) == "" {
		host = os.Getenv("DATABASE_HOST")
	}
	if port <= 0 {
		if env := strings.TrimSpace(os.Getenv("DATABASE_PORT")); env != "" {
			p, err := strconv.Atoi(env)
			if err != nil {
				return config.DatabaseConfig{}, fmt.Errorf("parse DATABASE_PORT: %w", err)
			}
			port = p
		}
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("POSTGRES_DB")
	}
	if strings.TrimSpace(name) == "" {
		name = os.Getenv("DB_NAME")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("POSTGRES_USER")
	}
	if strings.TrimSpace(user) == "" {
		user = os.Getenv("DB_USER")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("POSTGRES_PASSWORD")
	}
	if strings.TrimSpace(password) == "" {
		password = os.Getenv("DB_PASSWORD")
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = os.Getenv("DATABASE_SSLMODE")
	}

	if strings.TrimSpace(host) == "" {
		host = "localhost"
	}
	if port <= 0 {
		port = 5432
	}
	if strings.TrimSpace(sslmode) == "" {
		sslmode = "disable"
	}
	if strings.TrimSpace(name) == "" {
		return config.DatabaseConfig{}, errors.New("database name is required (POSTGRES_DB)")
	}
	if strings.TrimSpace(user) == "" {
		return config.DatabaseConfig{}, errors.New("database user is required (POSTGRES_USER)")
	}
	if strings.TrimSpace(password) == "" {
		return config.DatabaseConfig{}, errors.New("database password is required (POSTGRES_PASSWORD)")
	}

	return config.DatabaseConfig{
		Host:     host,
		Port:     port,
		Name:     name,
		User:     user,
		Password: password,
		SSLMode:  sslmode,
	}, nil
}
