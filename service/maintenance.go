package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"blogpress/app/config"
	"blogpress/app/logging"
	"blogpress/app/repositories"
	"blogpress/app/sessions"
)

// Names of the files inside a backup directory.
const (
	backupDatabaseFile = "blog.db"
	backupSessionsFile = "sessions.bak"
)

// ErrNoDatabase means there is nothing to back up.
var ErrNoDatabase = errors.New("database does not exist")

// InitStores creates the database schema and the session store. It returns
// the schema version now in place.
func InitStores(ctx context.Context, cfg *config.Config) (int, error) {
	store, sessionDB, err := openStores(cfg)
	if err != nil {
		return 0, err
	}
	defer store.Close()
	defer sessionDB.Close()

	return store.SchemaVersion(ctx)
}

// Clean removes the database file and the session store. It reports
// whether anything was removed.
func Clean(cfg *config.Config) (bool, error) {
	removed := false
	for _, path := range databaseFiles(cfg.Database.Path) {
		err := os.Remove(path)
		if err == nil {
			removed = true
			continue
		}
		if !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
	}

	if !cfg.Sessions.InMemory && cfg.Sessions.Path != "" {
		if _, err := os.Stat(cfg.Sessions.Path); err == nil {
			if err := os.RemoveAll(cfg.Sessions.Path); err != nil {
				return removed, fmt.Errorf("remove session store: %w", err)
			}
			removed = true
		}
	}
	return removed, nil
}

// Backup writes a consistent copy of the database and the sessions into a
// new timestamped directory under cfg.Data.BackupDir and returns its path.
func Backup(ctx context.Context, cfg *config.Config, now time.Time) (string, error) {
	if _, err := os.Stat(cfg.Database.Path); os.IsNotExist(err) {
		return "", ErrNoDatabase
	}

	dir := filepath.Join(cfg.Data.BackupDir, "backup_"+now.UTC().Format("20060102T150405Z"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	store, sessionDB, err := openStores(cfg)
	if err != nil {
		return "", err
	}
	defer store.Close()
	defer sessionDB.Close()

	if err := store.BackupTo(ctx, filepath.Join(dir, backupDatabaseFile)); err != nil {
		return "", err
	}

	if !cfg.Sessions.InMemory {
		f, err := os.Create(filepath.Join(dir, backupSessionsFile))
		if err != nil {
			return "", fmt.Errorf("create session backup: %w", err)
		}
		defer f.Close()
		if _, err := sessionDB.Backup(f, 0); err != nil {
			return "", fmt.Errorf("back up sessions: %w", err)
		}
	}

	logging.Info().Str("dir", dir).Msg("backup written")
	return dir, nil
}

// Restore replaces the database and sessions with the contents of a backup
// directory written by Backup.
func Restore(ctx context.Context, cfg *config.Config, dir string) error {
	src := filepath.Join(dir, backupDatabaseFile)
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("backup %s: %w", dir, err)
	}

	if _, err := Clean(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return fmt.Errorf("create database directory: %w", err)
	}
	if err := copyFile(src, cfg.Database.Path); err != nil {
		return fmt.Errorf("restore database: %w", err)
	}

	store, err := repositories.Open(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer store.Close()
	if _, err := store.SchemaVersion(ctx); err != nil {
		return err
	}

	sessionsBackup := filepath.Join(dir, backupSessionsFile)
	if cfg.Sessions.InMemory {
		return nil
	}
	if _, err := os.Stat(sessionsBackup); os.IsNotExist(err) {
		return nil
	}
	return restoreSessions(cfg, sessionsBackup)
}

func restoreSessions(cfg *config.Config, backupPath string) error {
	if err := os.MkdirAll(cfg.Sessions.Path, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	db, err := sessions.OpenDB(cfg.Sessions.Path, false)
	if err != nil {
		return err
	}
	defer db.Close()

	f, err := os.Open(backupPath)
	if err != nil {
		return fmt.Errorf("open session backup: %w", err)
	}
	defer f.Close()

	if err := db.Load(f, 4); err != nil {
		return fmt.Errorf("restore sessions: %w", err)
	}
	return nil
}

// databaseFiles lists the SQLite file and its WAL companions.
func databaseFiles(path string) []string {
	return []string{path, path + "-wal", path + "-shm"}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
