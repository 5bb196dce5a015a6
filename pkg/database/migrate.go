package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations 将数据库升级到内嵌迁移的最新版本
//
// 执行前若处于 dirty 状态直接返回错误，需人工修复后再启动；
// 执行后校验库内版本与内嵌最新版本一致。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	latest, err := latestVersion(migrationsFS, "migrations")
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	before, dirty, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if dirty {
		return fmt.Errorf("数据库迁移版本 %d 处于 dirty 状态，请人工修复后重试", before)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("执行迁移失败: %w", err)
		}
	}

	after, dirty, err := schemaVersion(m)
	if err != nil {
		return err
	}
	if err := checkVersion(after, dirty, latest); err != nil {
		return err
	}

	if before == after {
		logger.Info("数据库已是最新版本", zap.Uint("version", after))
	} else {
		logger.Info("数据库迁移完成", zap.Uint("from", before), zap.Uint("to", after))
	}
	return nil
}

// schemaVersion 读取库内当前版本，尚未迁移过的空库返回 0
func schemaVersion(m *migrate.Migrate) (uint, bool, error) {
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	return version, dirty, nil
}

func checkVersion(applied uint, dirty bool, latest uint) error {
	if dirty {
		return fmt.Errorf("迁移后版本 %d 处于 dirty 状态", applied)
	}
	if applied != latest {
		return fmt.Errorf("迁移后版本 %d 与内嵌最新版本 %d 不一致", applied, latest)
	}
	return nil
}

// latestVersion 取 dir 下 up 迁移文件名前缀中的最大版本号
func latestVersion(fsys fs.FS, dir string) (uint, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, fmt.Errorf("读取迁移目录失败: %w", err)
	}

	var latest uint
	found := false
	for _, e := range entries {
		name := e.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return 0, fmt.Errorf("迁移文件名缺少版本前缀: %s", name)
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("迁移文件版本号无效: %s", name)
		}
		found = true
		if uint(v) > latest {
			latest = uint(v)
		}
	}
	if !found {
		return 0, errors.New("未找到任何 up 迁移文件")
	}
	return latest, nil
}
