package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/GoMudEngine/npcchat/internal/configs"
	"github.com/GoMudEngine/npcchat/internal/conversations"
	"github.com/GoMudEngine/npcchat/internal/events"
	"github.com/GoMudEngine/npcchat/internal/hooks"
	"github.com/GoMudEngine/npcchat/internal/integrations/llm"
	"github.com/GoMudEngine/npcchat/internal/language"
	"github.com/GoMudEngine/npcchat/internal/mobs"
	"github.com/GoMudEngine/npcchat/internal/mudlog"
	"github.com/GoMudEngine/npcchat/internal/npcchat"
	"github.com/GoMudEngine/npcchat/internal/usercommands"
	"github.com/GoMudEngine/npcchat/internal/users"
	"github.com/GoMudEngine/npcchat/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {

	configPath := flag.String(`config`, `_datafiles/config.yaml`, `path to the config file`)
	flag.Parse()

	c, err := configs.Load(*configPath)
	if err != nil {
		mudlog.Error("Config", "error", err)
		os.Exit(1)
	}

	mudlog.SetupLogger(string(c.Logging.Level), string(c.Logging.File))
	mudlog.Info("Config", "path", *configPath, "listen", c.Server.ListenAddress, "datafiles", c.FilePaths.DataFiles)

	settings := configs.NewSettings(c.LLMChat)

	translator := language.NewTranslator(string(c.LLMChat.Language))
	if err := translator.LoadDir(c.LocalizePath()); err != nil {
		mudlog.Warn("Language", "path", c.LocalizePath(), "error", err)
	}

	store := conversations.NewStore(settings)
	client := llm.NewClient(settings, llm.WithFallbackSource(translator.Fallback))

	if settings.Get().Model == configs.ModelAuto {
		if err := client.DetectModel(); err != nil {
			mudlog.Warn("LLM", "detect", err)
		}
	}

	settings.OnReload(func(cfg configs.LLMChat) {
		translator.SetLanguage(string(cfg.Language))
		if cfg.Model == configs.ModelAuto {
			if err := client.DetectModel(); err != nil {
				mudlog.Warn("LLM", "detect", err)
			}
		}
	})

	queue := events.NewQueue()
	mobRegistry := mobs.NewRegistry()
	userRegistry := users.NewRegistry()

	env := &usercommands.Env{
		Settings:   settings,
		Mobs:       mobRegistry,
		Users:      userRegistry,
		Chat:       npcchat.NewOrchestrator(settings, store, client, queue, mobRegistry.GetSubject, userRegistry),
		Translator: translator,
		Queue:      queue,
		TokenUsage: client.TokenUsage,
	}

	hooks.RegisterListeners(queue, env, c.NPCPath())

	// Spawn whatever is on disk on the first tick
	queue.AddToQueue(events.NPCFilesChanged{Path: c.NPCPath()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watchConfig(ctx, *configPath, settings)
	watchNPCs(ctx, c.NPCPath(), queue)

	server := web.NewServer(string(c.Server.ListenAddress), env)
	server.Start()

	runTicks(ctx, time.Duration(c.Server.TickMilliseconds)*time.Millisecond, queue)

	mudlog.Info("Shutdown", "info", "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		mudlog.Error("Shutdown", "web", err)
	}
	if err := client.Shutdown(shutdownCtx); err != nil {
		mudlog.Error("Shutdown", "llm", err)
	}

	// Deliver anything the workers finished while draining
	queue.ProcessEvents()

	mudlog.Info("Shutdown", "info", "done")
}

// runTicks drains the event queue on a fixed interval until ctx is done.
// Every mutation of server state happens on this goroutine.
func runTicks(ctx context.Context, interval time.Duration, queue *events.Queue) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			queue.ProcessEvents()
		}
	}
}

func watchConfig(ctx context.Context, configPath string, settings *configs.Settings) {
	err := configs.Watch(ctx, func(path string) {
		c, err := configs.Load(configPath)
		if err != nil {
			mudlog.Error("Config", "reload", err)
			return
		}
		mudlog.SetLevel(string(c.Logging.Level))
		settings.Reload(c.LLMChat)
		mudlog.Info("Config", "reloaded", configPath, "model", settings.EffectiveModel(), "enabled", c.LLMChat.Enabled)
	}, configPath)

	if err != nil {
		mudlog.Warn("Config", "watch", err)
	}
}

func watchNPCs(ctx context.Context, npcPath string, queue *events.Queue) {
	if err := os.MkdirAll(filepath.Clean(npcPath), 0755); err != nil {
		mudlog.Warn("Mobs", "path", npcPath, "error", err)
		return
	}

	err := configs.Watch(ctx, func(path string) {
		queue.AddToQueue(events.NPCFilesChanged{Path: path})
	}, npcPath)

	if err != nil {
		mudlog.Warn("Mobs", "watch", err)
	}
}
