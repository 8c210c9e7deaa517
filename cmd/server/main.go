package main

import (
	"context"
	"log"

	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/chat"
	"github.com/haatos/shipci/internal/gitops"
	"github.com/haatos/shipci/internal/handler"
	"github.com/haatos/shipci/internal/pipeline"
	"github.com/haatos/shipci/internal/registry"
	"github.com/haatos/shipci/internal/security"
	"github.com/haatos/shipci/internal/service"
	"github.com/haatos/shipci/internal/settings"
	"github.com/haatos/shipci/internal/shell"
	"github.com/haatos/shipci/internal/store"
	"github.com/haatos/shipci/internal/tracker"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	hashKey := security.EnsureHashKey()
	encrypter := security.NewAESEncrypter(hashKey)

	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb)

	cfg, err := internal.ReadReleaseConfig(settings.Settings.ReleaseConfig)
	if err != nil {
		log.Fatal("err reading release config: ", err)
	}

	credSvc := service.NewCredentialService(store.NewCredentialSQLiteStore(rdb, rwdb), encrypter)
	apiKeySvc := service.NewAPIKeyService(store.NewAPIKeySQLiteStore(rdb, rwdb), service.NewUUIDGen())
	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	runSvc := service.NewRunService(runStore)
	configVersionSvc := service.NewConfigVersionService(store.NewConfigVersionSQLiteStore(rdb, rwdb))

	runner, fetcher := newRunner(cfg, credSvc)
	releaseSvc := service.NewReleaseService(
		cfg,
		runner,
		gitops.NewRepo(runner, cfg.Workdir),
		gitops.NewGitVersioner(runner, cfg.Workdir),
		registry.NewClient(runner, cfg.Workdir, cfg.ImageRepository, fetcher),
		newTracker(cfg, credSvc),
		newNotifier(cfg, credSvc),
	)

	queue := service.NewRunQueue(releaseSvc, runStore, settings.Settings.MaxQueuedRuns)
	go queue.Run()
	defer queue.Shutdown()

	cleanupScheduler := service.NewScheduler()
	defer func() {
		if err := cleanupScheduler.Shutdown(); err != nil {
			log.Println("err shutting down scheduler: ", err)
		}
	}()
	service.ScheduleRunCleanup(cleanupScheduler, runStore, settings.Settings.RunRetention)
	cleanupScheduler.Start()

	e := setupEcho()
	api := e.Group("")
	handler.SetupRunRoutes(api, runSvc, queue, apiKeySvc)
	handler.SetupConfigVersionRoutes(api, configVersionSvc, apiKeySvc)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig([]string{settings.Settings.BaseURL()})),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}

// newRunner picks where stage commands execute. With a builder block in
// the release config everything runs on the remote host over SSH and
// built image metadata can be fetched back; otherwise commands run
// locally.
func newRunner(
	cfg *internal.ReleaseConfig,
	credSvc *service.CredentialService,
) (shell.Runner, registry.Fetcher) {
	if cfg.Builder == nil {
		return shell.NewLocalRunner(), nil
	}
	key, err := credSvc.GetSecret(context.Background(), cfg.Builder.Credential)
	if err != nil {
		log.Fatal("err reading builder ssh key: ", err)
	}
	sshRunner := shell.NewSSHRunner(cfg.Builder.Host, cfg.Builder.Username, key)
	return sshRunner, sshRunner
}

func newTracker(
	cfg *internal.ReleaseConfig,
	credSvc *service.CredentialService,
) *tracker.Client {
	apiKey, err := credSvc.GetSecret(context.Background(), internal.CredentialTrackerAPIKey)
	if err != nil {
		log.Fatal("err reading tracker api key: ", err)
	}
	return tracker.NewClient(cfg.Tracker.URL, string(apiKey))
}

func newNotifier(
	cfg *internal.ReleaseConfig,
	credSvc *service.CredentialService,
) pipeline.Notifier {
	token, err := credSvc.GetSecret(context.Background(), internal.CredentialSlackToken)
	if err != nil {
		log.Fatal("err reading slack token: ", err)
	}
	return chat.NewSlackNotifier(string(token), cfg.Slack.Channel)
}
