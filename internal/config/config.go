package config

// Config represents the application configuration
type Config struct {
	Gmail    GmailConfig    `toml:"gmail"`
	Database DatabaseConfig `toml:"database"`
	Run      RunConfig      `toml:"run"`
	Relay    RelayConfig    `toml:"relay"`
}

// GmailConfig contains Gmail API settings
type GmailConfig struct {
	APIBaseURL      string `toml:"api_base_url"`
	CredentialsPath string `toml:"credentials_path"`
	MaxResults      int    `toml:"max_results"`
}

// DatabaseConfig contains local storage settings
type DatabaseConfig struct {
	Path string `toml:"path"`
}

// RunConfig controls batch processing
type RunConfig struct {
	// Concurrency bounds how many messages are processed at once; 1 means
	// sequential.
	Concurrency int `toml:"concurrency"`
}

// RelayConfig contains settings for the local sort-script relay
type RelayConfig struct {
	ListenAddr string   `toml:"listen_addr"`
	URL        string   `toml:"url"`
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Gmail: GmailConfig{
			APIBaseURL:      "https://gmail.googleapis.com/gmail/v1",
			CredentialsPath: "~/.config/mailsort/credentials.json",
			MaxResults:      100,
		},
		Database: DatabaseConfig{
			Path: "~/.local/share/mailsort/mailsort.db",
		},
		Run: RunConfig{
			Concurrency: 1,
		},
		Relay: RelayConfig{
			ListenAddr: "localhost:3000",
			URL:        "http://localhost:3000",
			Command:    "python3",
			Args:       []string{"sort.py"},
		},
	}
}
