package cron

import (
	"fmt"
	log "log/slog"
)

// InitCron 注册并启动全部任务，任一表达式非法时不启动
func InitCron(mgr *Manager) error {
	if err := mgr.RegisterJobs(); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	mgr.Start()
	log.Info("Cron started", "entries", len(mgr.engine.Entries()))
	return nil
}
