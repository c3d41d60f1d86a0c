package main

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/yourusername/questionbank-api/internal/config"
	"github.com/yourusername/questionbank-api/pkg/auth"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, source string

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Управление схемой базы вопросов",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "путь к файлу конфигурации")
	root.PersistentFlags().StringVar(&source, "source", "", "источник миграций (по умолчанию database.migrations_path)")

	withMigrator := func(fn func(m *migrate.Migrate) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if source == "" {
				source = cfg.Database.MigrationsPath
			}
			m, closeFn, err := openMigrator(cfg.Database.PostgresConnectionString(), source)
			if err != nil {
				return err
			}
			defer closeFn()
			return fn(m)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Применить все миграции",
			RunE: withMigrator(func(m *migrate.Migrate) error {
				if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
					return fmt.Errorf("up: %w", err)
				}
				fmt.Println("Миграции применены")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Откатить последнюю миграцию",
			RunE: withMigrator(func(m *migrate.Migrate) error {
				if err := m.Steps(-1); err != nil {
					return fmt.Errorf("down: %w", err)
				}
				fmt.Println("Последняя миграция откачена")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Показать текущую версию схемы",
			RunE: withMigrator(func(m *migrate.Migrate) error {
				version, dirty, err := m.Version()
				if errors.Is(err, migrate.ErrNilVersion) {
					fmt.Println("Миграции еще не применялись")
					return nil
				}
				if err != nil {
					return fmt.Errorf("version: %w", err)
				}
				fmt.Printf("version=%d dirty=%t\n", version, dirty)
				return nil
			}),
		},
		newForceCmd(withMigrator),
		newTokenCmd(&configPath),
	)
	return root
}

// newForceCmd принудительно выставляет версию, очищая dirty-состояние после неудачной миграции
func newForceCmd(withMigrator func(func(*migrate.Migrate) error) func(*cobra.Command, []string) error) *cobra.Command {
	var version int
	cmd := &cobra.Command{
		Use:   "force <version>",
		Short: "Принудительно установить версию схемы",
		Args:  cobra.ExactArgs(1),
		PreRunE: func(_ *cobra.Command, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q", args[0])
			}
			version = v
			return nil
		},
	}
	cmd.RunE = withMigrator(func(m *migrate.Migrate) error {
		if err := m.Force(version); err != nil {
			return fmt.Errorf("force %d: %w", version, err)
		}
		fmt.Printf("Версия схемы установлена в %d\n", version)
		return nil
	})
	return cmd
}

// newTokenCmd выпускает токен модератора, подписанный секретом из конфигурации
func newTokenCmd(configPath *string) *cobra.Command {
	var (
		username string
		ttl      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Выпустить токен модератора",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			svc, err := auth.NewJWTService(cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			token, err := svc.GenerateToken(username, true)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "user", "u", "moderator", "имя модератора")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "срок действия токена")
	return cmd
}

func openMigrator(dsn, source string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(source, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create migrator: %w", err)
	}
	return m, func() { m.Close() }, nil
}
