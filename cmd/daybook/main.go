package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"daybook/internal/clock"
	"daybook/internal/config"
	"daybook/internal/logger"
	"daybook/internal/notes"
	"daybook/internal/persist"
	"daybook/internal/reminders"
	"daybook/internal/storage"
	"daybook/internal/tasks"
	"daybook/internal/ui"
)

func main() {
	configPath := pflag.String("config", config.ResolveConfigPath(), "path to config.toml")
	dbPath := pflag.String("db", "", "override the database path from the config")
	dark := pflag.Bool("dark", false, "start in dark mode")
	pflag.Parse()

	cfg, err := config.LoadOrCreate(*configPath)
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}
	if *dark {
		cfg.DarkMode = true
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Printf("failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := run(store, cfg, log); err != nil {
		fmt.Printf("error running program: %v\n", err)
		os.Exit(1)
	}
}

func run(store *storage.Store, cfg config.Config, log *zap.SugaredLogger) error {
	ctx := context.Background()
	clk := clock.Real()

	writer := persist.NewWriter(store, persist.WithLogger(log))
	defer func() {
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := writer.Flush(flushCtx); err != nil {
			log.Errorw("pending writes lost on exit", "error", err)
		}
		writer.Close()
	}()

	bridge := ui.NewBridge()

	taskList := tasks.New(writer, tasks.WithClock(clk), tasks.WithLogger(log.Named("tasks")))
	taskList.Load(ctx, store)

	noteList := notes.New(writer, bridge, notes.WithLogger(log.Named("notes")))
	noteList.Load(ctx, store)

	opts := []reminders.Option{
		reminders.WithNotifier(bridge),
		reminders.WithOnChange(bridge.Refresh),
		reminders.WithLogger(log.Named("reminders")),
		reminders.WithDefaultMessage(cfg.Reminders.DefaultMessage),
	}
	if cfg.Reminders.Persist {
		opts = append(opts, reminders.WithWriter(writer))
	}
	reminderList := reminders.New(clk, opts...)
	defer reminderList.Close()
	reminderList.Load(ctx, store)

	deps := ui.Deps{
		Tasks:     taskList,
		Notes:     noteList,
		Reminders: reminderList,
		Clock:     clk,
	}
	return ui.Run(deps, cfg, bridge)
}
