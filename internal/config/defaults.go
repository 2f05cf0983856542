package config

const (
	defaultConfigPath          = "~/.config/minutes/config.toml"
	defaultStateDir            = "~/.local/share/minutes"
	defaultLogDir              = "~/.local/share/minutes/logs"
	defaultLogRetentionDays    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogStreamBuffer     = 1024
	defaultAPIBind             = "127.0.0.1:7490"
	defaultStoreFile           = "minutes.db"
	defaultListLimit           = 20
	defaultMaxListLimit        = 500
	defaultEngineTimeout       = 1800
	defaultEngineConcurrency   = 2
	defaultEngineModel         = "large"
	defaultGroup               = "meetings"
	defaultLanguage            = "en"
	defaultEventJournal        = 2048
	defaultWriteRetryAttempts  = 3
	defaultWriteRetryBackoffMS = 100
	defaultShutdownGrace       = 30
	defaultNtfyRequestTimeout  = 10
)

// Store driver names.
const (
	StoreDriverSQLite   = "sqlite"
	StoreDriverPostgres = "postgres"
)

// ModelHints lists the engine model names ingress accepts.
var ModelHints = []string{
	"tiny", "base", "small", "medium", "large", "large-v2", "large-v3", "large-v3-turbo",
}

func defaultEngineCommand() []string {
	return []string{"python3", "scripts/transcribe_whisper.py"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Store: Store{
			Driver:       StoreDriverSQLite,
			ListLimit:    defaultListLimit,
			MaxListLimit: defaultMaxListLimit,
		},
		Engine: Engine{
			Command:        defaultEngineCommand(),
			TimeoutSeconds: defaultEngineTimeout,
			MaxConcurrent:  defaultEngineConcurrency,
			DefaultModel:   defaultEngineModel,
		},
		Pipeline: Pipeline{
			DefaultGroup:    defaultGroup,
			DefaultLanguage: defaultLanguage,
			EventJournal:    defaultEventJournal,
		},
		Workflow: Workflow{
			WriteRetryAttempts:   defaultWriteRetryAttempts,
			WriteRetryBackoffMS:  defaultWriteRetryBackoffMS,
			ShutdownGraceSeconds: defaultShutdownGrace,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyRequestTimeout,
			Completed:      true,
			Failures:       true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			StreamBuffer:  defaultLogStreamBuffer,
		},
	}
}
