package internal

const (
	DotEnvPath              = "./.env"
	MigrationsDir           = "migrations"
	ArtifactsDir            = "artifacts"
	DBTimestampLayout       = "2006-01-02 15:04:05.999999999-07:00"
	RunDirLayout            = "20060102_150405000"
	WebhookTriggerKeyHeader = "X-ShipCI-Webhook-Key"
	SkipMarker              = "[skip ci]"

	CredentialSlackToken    = "slack_token"
	CredentialTrackerAPIKey = "tracker_api_key"
)
