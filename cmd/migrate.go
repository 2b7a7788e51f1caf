package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/authenx/evidence-hub/database/models"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Migrate data from one database to another (e.g., SQLite to PostgreSQL).`,
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run database migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  evidence-hub migrate run --from-sqlite ./data/evidence-hub.db --to-postgres "host=localhost user=postgres password=secret dbname=evidence port=5432"

  # Stop on conflict
  evidence-hub migrate run --from-sqlite ./data/evidence-hub.db --to-postgres "..." --on-conflict=error`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")
		onConflict, _ := cmd.Flags().GetString("on-conflict")

		if err := runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres, skipConfirm, batchSize, onConflict); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 100, "Batch size for data migration")
	migrateRunCmd.Flags().String("on-conflict", "skip", "Conflict resolution strategy: skip (default), error")
}

// migrateStats 迁移统计
type migrateStats struct {
	assets    int
	documents int
	skipped   int
	errors    []string
}

// runMigration 执行数据库迁移
func runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres string, skipConfirm bool, batchSize int, onConflict string) error {
	if onConflict != "skip" && onConflict != "error" {
		return fmt.Errorf("invalid on-conflict strategy: %s (must be skip or error)", onConflict)
	}

	// 处理快捷方式参数
	if fromSQLite != "" {
		fromType = "sqlite"
		fromDSN = fromSQLite
	}
	if toPostgres != "" {
		toType = "postgres"
		toDSN = toPostgres
	}

	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	sqlDB, _ := sourceDB.DB()
	defer sqlDB.Close()

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	sqlDB2, _ := targetDB.DB()
	defer sqlDB2.Close()

	if !skipConfirm {
		fmt.Println("\nWarning: This will migrate all data from source to target database.")
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	stats := &migrateStats{}

	// 自动迁移目标数据库结构
	log.Println("Migrating database schema...")
	if err := targetDB.AutoMigrate(&models.Asset{}, &models.RequiredDocument{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	ctx := context.Background()

	log.Println("Migrating assets...")
	if err := migrateAssets(ctx, sourceDB, targetDB, stats, batchSize, onConflict); err != nil {
		return err
	}

	log.Println("Migrating required documents...")
	if err := migrateDocuments(ctx, sourceDB, targetDB, stats, batchSize, onConflict); err != nil {
		return err
	}

	printMigrateStats(stats)

	if len(stats.errors) > 0 {
		return fmt.Errorf("migration completed with %d errors", len(stats.errors))
	}

	log.Println("Migration completed successfully!")
	return nil
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// migrateAssets 迁移资产数据
func migrateAssets(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, batchSize int, onConflict string) error {
	var offset int
	for {
		var assets []models.Asset
		if err := sourceDB.WithContext(ctx).Limit(batchSize).Offset(offset).Find(&assets).Error; err != nil {
			return err
		}
		if len(assets) == 0 {
			break
		}

		for _, asset := range assets {
			// 关联单独迁移，避免重复写入
			asset.Documents = nil

			var count int64
			targetDB.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", asset.ID).Count(&count)
			if count > 0 {
				if onConflict == "error" {
					return fmt.Errorf("asset already exists: %s", asset.ID)
				}
				stats.skipped++
				continue
			}

			if err := targetDB.WithContext(ctx).Create(&asset).Error; err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate asset %s: %v", asset.ID, err))
				continue
			}
			stats.assets++
		}

		offset += batchSize
	}

	log.Printf("Migrated %d assets (skipped: %d)", stats.assets, stats.skipped)
	return nil
}

// migrateDocuments 迁移文档清单数据
func migrateDocuments(ctx context.Context, sourceDB, targetDB *gorm.DB, stats *migrateStats, batchSize int, onConflict string) error {
	var offset int
	for {
		var documents []models.RequiredDocument
		if err := sourceDB.WithContext(ctx).Limit(batchSize).Offset(offset).Find(&documents).Error; err != nil {
			return err
		}
		if len(documents) == 0 {
			break
		}

		for _, doc := range documents {
			var count int64
			targetDB.WithContext(ctx).Model(&models.RequiredDocument{}).Where("id = ?", doc.ID).Count(&count)
			if count > 0 {
				if onConflict == "error" {
					return fmt.Errorf("document already exists: %s", doc.ID)
				}
				stats.skipped++
				continue
			}

			if err := targetDB.WithContext(ctx).Create(&doc).Error; err != nil {
				stats.errors = append(stats.errors, fmt.Sprintf("failed to migrate document %s: %v", doc.ID, err))
				continue
			}
			stats.documents++
		}

		offset += batchSize
	}

	log.Printf("Migrated %d required documents", stats.documents)
	return nil
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}

// printMigrateStats 打印迁移统计
func printMigrateStats(stats *migrateStats) {
	fmt.Println()
	fmt.Println("========================================")
	fmt.Println("       Migration Statistics")
	fmt.Println("========================================")
	fmt.Printf("Assets migrated:     %d\n", stats.assets)
	fmt.Printf("Documents migrated:  %d\n", stats.documents)
	fmt.Printf("Skipped records:     %d\n", stats.skipped)
	fmt.Println("========================================")

	if len(stats.errors) > 0 {
		fmt.Println("\nErrors encountered:")
		for _, err := range stats.errors {
			fmt.Printf("  - %s\n", err)
		}
	}
}
