package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/moyoez/cutqueue/api"
	"github.com/moyoez/cutqueue/api/models"
	"github.com/moyoez/cutqueue/api/notifyhub"
	"github.com/moyoez/cutqueue/notify"
	"github.com/moyoez/cutqueue/pipeline"
	"github.com/moyoez/cutqueue/queue"
	"github.com/moyoez/cutqueue/tool"
	"github.com/moyoez/cutqueue/transfer"
	"github.com/moyoez/cutqueue/types"
)

func main() {
	cfg := tool.SetFlags()

	// initialize logger
	tool.InitLogger()
	tool.SetLogMode(cfg.Log)

	appCfg, err := tool.LoadConfig(cfg.UseConfigPath)
	if err != nil {
		tool.DefaultLogger.Fatalf("%v", err)
	}
	tool.ApplyFlagOverrides(&appCfg, cfg)
	tool.InitHTTPClients(time.Duration(appCfg.RequestTimeout) * time.Second)

	client := transfer.NewClient(appCfg, nil)
	if cfg.ProbeBackend {
		probeBackend(client)
	}

	dispatcher := notify.NewDispatcher(appCfg.NotifySocket, !cfg.SkipNotify)
	dispatcher.SetRecorder(models.GetFeed())
	if appCfg.NotifyWebsocket && !cfg.NoServer {
		hub := notifyhub.New()
		models.SetNotifyHub(hub)
		dispatcher.SetHub(hub)
	}

	store := queue.NewStore()
	engine := pipeline.NewEngine(store, client, pipeline.Options{
		PollInterval: tool.PollInterval(&appCfg),
		Validate: func(info types.FileInfo) error {
			return tool.ValidateFileInfo(info, appCfg.AllowedTypes, appCfg.MaxUploadBytes)
		},
		Notifier: dispatcher,
	})
	models.SetEngine(engine)
	models.SetURLBuilder(client)
	models.SetDefaultPreviewFolder(tool.PreviewDir(appCfg.PreviewDir))
	store.SetChangeHook(api.NewQueueChangeHandler().OnChange)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var apiServer *api.Server
	if !cfg.NoServer {
		apiServer = api.NewServer(appCfg.Listen, appCfg.IntakeRatePerSecond)
		go func() {
			if err := apiServer.Start(); err != nil {
				tool.DefaultLogger.Fatalf("API server startup failed: %v", err)
			}
		}()
	}

	if cfg.Files != "" {
		enqueueFiles(engine, strings.Split(cfg.Files, ","))
	}
	if cfg.AutoProcess {
		engine.Wait()
		if ids := store.EligibleIDs(); len(ids) > 0 {
			if err := engine.Process(ctx, ids, ""); err != nil {
				tool.DefaultLogger.Errorf("%v", err)
			}
		} else {
			tool.DefaultLogger.Warn("Nothing is eligible for processing")
		}
	}

	if cfg.ExitWhenDone {
		engine.Wait()
		waitSettled(ctx, engine)
		if cfg.UseDownloadFolder != "" {
			downloadProcessed(ctx, client, store, cfg.UseDownloadFolder)
		}
		fmt.Println(summaryTable(store))
	} else {
		<-ctx.Done()
	}

	tool.DefaultLogger.Info("Shutting down")
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			tool.DefaultLogger.Errorf("API server shutdown failed: %v", err)
		}
		cancel()
	}
	engine.Close()
}

// probeBackend logs whether the processing service answers. Failures are not fatal.
func probeBackend(client *transfer.Client) {
	result, err := tool.ProbeBackendHost(client.Backend(), 2*time.Second)
	switch {
	case err != nil:
		tool.DefaultLogger.Warnf("Backend probe: %v", err)
	case !result.Reachable:
		tool.DefaultLogger.Warnf("Backend host %s did not answer ping", result.Host)
	default:
		tool.DefaultLogger.Infof("Backend host %s reachable, rtt %v", result.Host, result.AvgRtt)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Health(ctx); err != nil {
		tool.DefaultLogger.Warnf("Backend health check failed: %v", err)
		return
	}
	tool.DefaultLogger.Infof("Backend %s is healthy", client.Backend())
}

func enqueueFiles(engine *pipeline.Engine, paths []string) {
	for _, path := range paths {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		info, err := tool.GetFileInfoFromPath(path)
		if err != nil {
			tool.DefaultLogger.Errorf("Skipping %s: %v", path, err)
			continue
		}
		file, err := os.Open(path)
		if err != nil {
			tool.DefaultLogger.Errorf("Skipping %s: %v", path, err)
			continue
		}
		item, err := engine.Add(info, file, nil)
		if err != nil {
			tool.DefaultLogger.Errorf("Skipping %s: %v", path, err)
			continue
		}
		tool.DefaultLogger.Infof("Queued %s as %s", item.Name, item.ClientID)
	}
}

// waitSettled blocks until nothing is left to poll or ctx is cancelled.
func waitSettled(ctx context.Context, engine *pipeline.Engine) {
	store := engine.Store()
	for len(store.PollableIDs()) > 0 {
		engine.Poller().Start()
		select {
		case <-ctx.Done():
			return
		case <-engine.Poller().Done():
		}
	}
}

func downloadProcessed(ctx context.Context, client *transfer.Client, store *queue.Store, dir string) {
	for _, item := range store.Items() {
		if item.Status != types.StatusProcessed {
			continue
		}
		url, err := client.ItemDownloadURL(item.DownloadProcessedURL, item.ServerID, tool.VariantProcessed)
		if err != nil {
			tool.DefaultLogger.Errorf("No download location for %s: %v", item.Name, err)
			continue
		}
		if _, err := client.Download(ctx, url, dir, tool.SafeFileName(item.Name)); err != nil {
			tool.DefaultLogger.Errorf("Download of %s failed: %v", item.Name, err)
		}
	}
}

func summaryTable(store *queue.Store) string {
	items := store.Items()
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, []string{item.Name, item.ServerID, item.Status.String(), strconv.Itoa(item.Progress) + "%", item.Message})
	}
	return tool.RenderTable(os.Stdout, []string{"Name", "Server ID", "Status", "Progress", "Message"}, rows, 4)
}
