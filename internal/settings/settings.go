package settings

import (
	"bufio"
	"fmt"
	"log"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/haatos/shipci/internal/util"
)

var Settings *AppSettings

func NewSettings() *AppSettings {
	settings := AppSettings{
		Domain:          getEnvOrDefault("SHIPCI_DOMAIN", "localhost"),
		Port:            getEnvOrDefault("SHIPCI_PORT", ":8080"),
		SQLiteDatabase:  getEnvOrDefault("SHIPCI_DB_PATH", "file:.///db.sqlite"),
		ReleaseConfig:   getEnvOrDefault("SHIPCI_RELEASE_CONFIG", "release.yml"),
		PipelineTimeout: time.Duration(
			util.MustAtoi64(getEnvOrDefault("SHIPCI_PIPELINE_TIMEOUT_MINUTES", "20")),
		) * time.Minute,
		RunRetention: time.Duration(
			util.MustAtoi64(getEnvOrDefault("SHIPCI_RUN_RETENTION_DAYS", "30"))*24,
		) * time.Hour,
		MaxQueuedRuns: util.MustAtoi64(getEnvOrDefault("SHIPCI_MAX_QUEUED_RUNS", "10")),
	}
	if !strings.HasPrefix(settings.Port, ":") {
		settings.Port = ":" + settings.Port
	}
	return &settings
}

func getEnvOrDefault(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return value
}

type AppSettings struct {
	SQLiteDatabase  string
	ReleaseConfig   string
	Domain          string
	Port            string
	PipelineTimeout time.Duration
	RunRetention    time.Duration
	MaxQueuedRuns   int64
}

func (as *AppSettings) BaseURL() string {
	if as.Domain == "localhost" {
		return fmt.Sprintf("http://%s%s", as.Domain, as.Port)
	} else {
		return fmt.Sprintf("https://%s", as.Domain)
	}
}

func (as *AppSettings) SQLiteDbString(readonly bool) string {
	params := make(url.Values)
	params.Add("_journal_mode", "WAL")
	params.Add("_busy_timeout", "5000")
	params.Add("_synchronous", "NORMAL")
	params.Add("_cache_size", "-20000")
	params.Add("_foreign_keys", "ON")
	if readonly {
		params.Add("mode", "ro")
	} else {
		params.Add("_txlock", "IMMEDIATE")
		params.Add("mode", "rwc")
	}

	return as.SQLiteDatabase + "?" + params.Encode()
}

func ReadDotenv(path string) {
	re := regexp.MustCompile(`^[^0-9][A-Z0-9_]+=.+$`)
	f, err := os.Open(path)
	if err != nil {
		log.Fatal("err opening dotenv: ", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > 0 && line[0] != '#' && re.Match(line) {
			split := strings.Split(string(line), "=")
			name := strings.TrimSpace(split[0])
			value := strings.TrimSpace(split[1])
			value = strings.Trim(value, `"`)
			os.Setenv(name, value)
		}
	}
}
