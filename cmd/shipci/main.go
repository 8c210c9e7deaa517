package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/haatos/shipci/internal"
	"github.com/haatos/shipci/internal/chat"
	"github.com/haatos/shipci/internal/gitops"
	"github.com/haatos/shipci/internal/registry"
	"github.com/haatos/shipci/internal/security"
	"github.com/haatos/shipci/internal/service"
	"github.com/haatos/shipci/internal/settings"
	"github.com/haatos/shipci/internal/shell"
	"github.com/haatos/shipci/internal/store"
	"github.com/haatos/shipci/internal/tracker"

	"golang.org/x/term"

	_ "modernc.org/sqlite"
)

const usage = `usage:
  shipci credential set <name> [description]
  shipci credential list
  shipci api-key new [description]
  shipci api-key list
  shipci run`

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

	credSvc := service.NewCredentialService(store.NewCredentialSQLiteStore(rdb, rwdb), encrypter)
	apiKeySvc := service.NewAPIKeyService(store.NewAPIKeySQLiteStore(rdb, rwdb), service.NewUUIDGen())
	runStore := store.NewRunSQLiteStore(rdb, rwdb)

	if len(os.Args) < 2 {
		log.Fatal(usage)
	}

	switch os.Args[1] {
	case "credential":
		credentialCommand(credSvc, os.Args[2:])
	case "api-key":
		apiKeyCommand(apiKeySvc, os.Args[2:])
	case "run":
		runCommand(credSvc, runStore)
	default:
		log.Fatal(usage)
	}
}

func credentialCommand(credSvc *service.CredentialService, args []string) {
	if len(args) < 1 {
		log.Fatal(usage)
	}
	switch args[0] {
	case "set":
		if len(args) < 2 {
			log.Fatal(usage)
		}
		name := args[1]
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		fmt.Printf("secret for %s: ", name)
		secret, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			log.Fatal("err reading secret: ", err)
		}
		if _, err := credSvc.SetCredential(
			context.Background(), name, description, string(secret),
		); err != nil {
			log.Fatal("err storing credential: ", err)
		}
		fmt.Printf("credential %s stored\n", name)
	case "list":
		credentials, err := credSvc.ListCredentials(context.Background())
		if err != nil {
			log.Fatal("err listing credentials: ", err)
		}
		for _, c := range credentials {
			fmt.Printf("%d\t%s\t%s\n", c.CredentialID, c.Name, c.Description)
		}
	default:
		log.Fatal(usage)
	}
}

func apiKeyCommand(apiKeySvc *service.APIKeyService, args []string) {
	if len(args) < 1 {
		log.Fatal(usage)
	}
	switch args[0] {
	case "new":
		description := ""
		if len(args) > 1 {
			description = args[1]
		}
		ak, err := apiKeySvc.CreateAPIKey(context.Background(), description)
		if err != nil {
			log.Fatal("err creating api key: ", err)
		}
		fmt.Println(ak.Value)
	case "list":
		keys, err := apiKeySvc.ListAPIKeys(context.Background())
		if err != nil {
			log.Fatal("err listing api keys: ", err)
		}
		for _, k := range keys {
			fmt.Printf("%d\t%s\t%s\n", k.ID, k.Value, k.Description)
		}
	default:
		log.Fatal(usage)
	}
}

// runCommand executes the pipeline once for the current HEAD of the
// configured workdir, without going through the webhook server.
func runCommand(credSvc *service.CredentialService, runStore store.RunStore) {
	cfg, err := internal.ReadReleaseConfig(settings.Settings.ReleaseConfig)
	if err != nil {
		log.Fatal("err reading release config: ", err)
	}

	runner := shell.NewLocalRunner()
	repo := gitops.NewRepo(runner, cfg.Workdir)
	head, err := repo.Head(context.Background())
	if err != nil {
		log.Fatal("err reading HEAD: ", err)
	}

	trackerKey, err := credSvc.GetSecret(context.Background(), internal.CredentialTrackerAPIKey)
	if err != nil {
		log.Fatal("err reading tracker api key: ", err)
	}
	slackToken, err := credSvc.GetSecret(context.Background(), internal.CredentialSlackToken)
	if err != nil {
		log.Fatal("err reading slack token: ", err)
	}

	releaseSvc := service.NewReleaseService(
		cfg,
		runner,
		repo,
		gitops.NewGitVersioner(runner, cfg.Workdir),
		registry.NewClient(runner, cfg.Workdir, cfg.ImageRepository, nil),
		tracker.NewClient(cfg.Tracker.URL, string(trackerKey)),
		chat.NewSlackNotifier(string(slackToken), cfg.Slack.Channel),
	)

	run, err := runStore.CreateRun(
		context.Background(),
		head.Branch, head.Hash, head.Message, head.SkipRequested(),
	)
	if err != nil {
		log.Fatal("err creating run: ", err)
	}

	if err := releaseSvc.Execute(context.Background(), run); err != nil {
		log.Fatal("pipeline failed: ", err)
	}
	fmt.Printf("pipeline succeeded for %s at %s\n", run.Branch, run.CommitHash)
}
