package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Backend             string   `yaml:"backend" json:"backend"`
	UploadPath          string   `yaml:"uploadPath" json:"uploadPath"`
	ProcessPath         string   `yaml:"processPath" json:"processPath"`
	StatusPath          string   `yaml:"statusPath" json:"statusPath"`
	BatchDownloadPath   string   `yaml:"batchDownloadPath" json:"batchDownloadPath"`
	ItemDownloadPath    string   `yaml:"itemDownloadPath" json:"itemDownloadPath"` // {id} and {variant} are substituted
	HealthPath          string   `yaml:"healthPath" json:"healthPath"`
	PollIntervalMs      int      `yaml:"pollIntervalMs" json:"pollIntervalMs"`
	RequestTimeout      int      `yaml:"requestTimeout" json:"requestTimeout"` // seconds
	Listen              string   `yaml:"listen" json:"listen"`
	MaxUploadBytes      int64    `yaml:"maxUploadBytes" json:"maxUploadBytes"`
	AllowedTypes        []string `yaml:"allowedTypes" json:"allowedTypes"`
	PreviewDir          string   `yaml:"previewDir,omitempty" json:"previewDir"`
	NotifySocket        string   `yaml:"notifySocket,omitempty" json:"notifySocket"`
	IntakeRatePerSecond int      `yaml:"intakeRatePerSecond" json:"intakeRatePerSecond"`
	NotifyWebsocket     bool     `yaml:"notifyWebsocket" json:"notifyWebsocket"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log               string
	UseConfigPath     string
	UseBackend        string
	UseListen         string
	UsePollInterval   int    // milliseconds, 0 keeps the config value
	UseDownloadFolder string // where headless mode saves processed results, "" skips downloading
	Files             string // comma separated local files to enqueue at startup
	AutoProcess       bool   // request processing for every eligible item once uploads settle
	ExitWhenDone      bool   // print a summary and exit once nothing is pollable
	SkipNotify        bool   // if true, skip the unix socket notify sink.
	ProbeBackend      bool   // ping the backend host before starting
	NoServer          bool   // do not start the local HTTP API
}
