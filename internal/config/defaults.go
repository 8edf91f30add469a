package config

const (
	defaultStateDir          = "~/.local/share/llstore/state"
	defaultLogDir            = "~/.local/share/llstore/logs"
	defaultSocket            = "~/.local/share/llstore/llstored.sock"
	defaultInstallerBinary   = "ll-cli"
	defaultInstallTimeout    = 3600
	defaultMinFreeSpaceGiB   = 2
	defaultCatalogBaseURL    = "https://store-api.linyaps.org.cn"
	defaultCatalogTimeout    = 15
	defaultCatalogLanguage   = "zh-CN"
	defaultNotifyTimeout     = 10
	defaultWorkflowEventBuf  = 128
	defaultWorkflowHistLimit = 50
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			Socket:   defaultSocket,
		},
		Installer: Installer{
			Binary:          defaultInstallerBinary,
			InstallTimeout:  defaultInstallTimeout,
			MinFreeSpaceGiB: defaultMinFreeSpaceGiB,
		},
		Catalog: Catalog{
			BaseURL:        defaultCatalogBaseURL,
			TimeoutSeconds: defaultCatalogTimeout,
			Language:       defaultCatalogLanguage,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Installs:       true,
			Errors:         true,
		},
		Workflow: Workflow{
			EventBuffer:  defaultWorkflowEventBuf,
			HistoryLimit: defaultWorkflowHistLimit,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
