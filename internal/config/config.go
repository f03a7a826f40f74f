package config

import (
	"crypto/sha256"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	autopushErrors "github.com/bashhack/autopush/internal/errors"
)

const (
	// EnvPrefix is prepended to every environment variable autopush reads,
	// e.g. AUTOPUSH_VAULT or AUTOPUSH_DESKTOP_NOTIFY.
	EnvPrefix = "AUTOPUSH"

	// ConfigFileName is the base name of the optional YAML config file.
	ConfigFileName = "autopush"

	// DefaultGitBin is the git executable used when none is configured.
	DefaultGitBin = "git"

	// SettingsDirName holds autopush state inside the vault.
	SettingsDirName = ".autopush"

	// SettingsFileName is the default settings blob inside SettingsDirName.
	SettingsFileName = "settings.json"
)

// Config keys shared by flags, environment variables and the config file.
const (
	keyVault         = "vault"
	keySettingsFile  = "settings-file"
	keyGitBin        = "git-bin"
	keyDebug         = "debug"
	keyLogFile       = "log-file"
	keyDesktopNotify = "desktop-notify"
	keyNotifySuccess = "notify-success"
	keyQuiet         = "quiet"
)

// Config holds all autopush process settings.
// The commit interval is not here: it lives in the persisted settings blob
// so that it can change while the daemon runs.
type Config struct {
	// VaultPath is the notes vault to back up.
	// If empty, the current working directory is used.
	VaultPath string

	// SettingsFile is the persisted settings blob.
	// Defaults to <vault>/.autopush/settings.json.
	SettingsFile string

	// GitBin is the git executable.
	GitBin string

	// ConfigFile is an explicit YAML config file. When empty, autopush.yaml is
	// looked up in the working directory and $XDG_CONFIG_HOME/autopush.
	ConfigFile string

	// Verbose controls the amount of informational output.
	Verbose bool

	// DesktopNotify mirrors notices as native desktop notifications.
	DesktopNotify bool

	// NotifySuccess shows a notice after every successful push.
	NotifySuccess bool

	// Debug enables the diagnostic log file.
	Debug bool

	// LogFile specifies where to write debug logs.
	// If empty, logs are written to a default location based on vault path.
	LogFile string

	// Version indicates whether to show version information and exit.
	Version bool

	// ShowHelp indicates whether to display the help message and exit.
	ShowHelp bool

	// Args holds the positional arguments left after flag parsing: the
	// subcommand and its operands.
	Args []string

	// VersionInfo contains version, commit, and build date information.
	VersionInfo VersionInfo

	// ParsedQuiet tracks the state of the -quiet flag.
	// Used during flag parsing to handle flag inversion.
	ParsedQuiet *bool
}

// VersionInfo contains build-time version metadata.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// New creates a new Config with default values
func New() *Config {
	return &Config{
		GitBin:  DefaultGitBin,
		Verbose: true,

		VersionInfo: VersionInfo{
			Version: "dev",
			Commit:  "unknown",
			Date:    "unknown",
		},
	}
}

// newViper returns a viper instance reading AUTOPUSH_* variables and the
// optional config file.
func (c *Config) newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if c.ConfigFile != "" {
		v.SetConfigFile(c.ConfigFile)
		return v
	}

	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "autopush"))
	}
	return v
}

// LoadFromEnvironment updates config from the config file and environment
// variables. Environment variables win over the file. A missing config file
// is not an error; an explicit ConfigFile that cannot be read is.
func (c *Config) LoadFromEnvironment() error {
	v := c.newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.ConfigFile != "" || !autopushErrors.As(err, &notFound) {
			return autopushErrors.NewConfigError("config file", v.ConfigFileUsed(),
				autopushErrors.Wrap(autopushErrors.ErrInvalidConfiguration, err.Error()))
		}
	}

	c.VaultPath = getString(v, keyVault, c.VaultPath)
	c.SettingsFile = getString(v, keySettingsFile, c.SettingsFile)
	c.GitBin = getString(v, keyGitBin, c.GitBin)
	c.Debug = getBool(v, keyDebug, c.Debug)
	c.LogFile = getString(v, keyLogFile, c.LogFile)
	c.DesktopNotify = getBool(v, keyDesktopNotify, c.DesktopNotify)
	c.NotifySuccess = getBool(v, keyNotifySuccess, c.NotifySuccess)
	c.Verbose = !getBool(v, keyQuiet, !c.Verbose)

	return nil
}

// SetupFlags sets up command-line flags to override config values
func (c *Config) SetupFlags(fs *flag.FlagSet) {
	var quiet bool

	fs.StringVar(&c.VaultPath, keyVault, c.VaultPath, "Path to the vault (default: current directory)")
	fs.StringVar(&c.SettingsFile, keySettingsFile, c.SettingsFile, "Settings file (default: <vault>/.autopush/settings.json)")
	fs.StringVar(&c.GitBin, keyGitBin, c.GitBin, "git executable")
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "YAML config file (default: ./autopush.yaml)")
	fs.BoolVar(&quiet, keyQuiet, !c.Verbose, "Hide informational messages")
	fs.BoolVar(&c.DesktopNotify, keyDesktopNotify, c.DesktopNotify, "Also show notices as desktop notifications")
	fs.BoolVar(&c.NotifySuccess, keyNotifySuccess, c.NotifySuccess, "Show a notice after every successful push")
	fs.BoolVar(&c.Debug, keyDebug, c.Debug, "Enable debug logging")
	fs.StringVar(&c.LogFile, keyLogFile, c.LogFile, "Path to log file (default: ~/.local/share/autopush/logs/autopush-{vault-hash}.log)")
	fs.BoolVar(&c.Version, "version", c.Version, "Print version information and exit")
	fs.BoolVar(&c.ShowHelp, "help", c.ShowHelp, "Display help message and exit")

	c.ParsedQuiet = &quiet
}

// PrintUsage prints a formatted help message with command descriptions, examples, and grouped flags
func (c *Config) PrintUsage(fs *flag.FlagSet, w io.Writer) {
	programName := filepath.Base(os.Args[0])

	_, _ = fmt.Fprintf(w, "autopush: Automatic commit and push for a notes vault\n\n")
	_, _ = fmt.Fprintf(w, "Usage: %s [options] [command]\n\n", programName)
	_, _ = fmt.Fprintf(w, "autopush stages, commits and pushes the vault on a timer so that notes\n")
	_, _ = fmt.Fprintf(w, "are always backed up to the vault's git remote.\n\n")

	_, _ = fmt.Fprintf(w, "Commands:\n")
	_, _ = fmt.Fprintf(w, "  (none)                   Run the daemon: one cycle now, then on the timer\n")
	_, _ = fmt.Fprintf(w, "  once                     Run a single cycle and exit\n")
	_, _ = fmt.Fprintf(w, "  set-interval <minutes>   Change the interval (0 disables the timer)\n")
	_, _ = fmt.Fprintf(w, "  status                   Show repository state and the current interval\n\n")

	_, _ = fmt.Fprintf(w, "Examples:\n")
	_, _ = fmt.Fprintf(w, "  %s -vault ~/notes                  # Run with the persisted interval (default 5 minutes)\n", programName)
	_, _ = fmt.Fprintf(w, "  %s -vault ~/notes set-interval 0.5 # Commit every 30 seconds\n", programName)
	_, _ = fmt.Fprintf(w, "  %s -vault ~/notes once             # Back up right now\n", programName)
	_, _ = fmt.Fprintf(w, "  kill -USR1 <pid>                         # Ask a running daemon for a cycle now\n\n")

	_, _ = fmt.Fprintf(w, "Core Options:\n")
	printFlagIfExists(w, fs, keyVault)
	printFlagIfExists(w, fs, keySettingsFile)
	printFlagIfExists(w, fs, keyGitBin)
	printFlagIfExists(w, fs, "config")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Output Options:\n")
	printFlagIfExists(w, fs, keyQuiet)
	printFlagIfExists(w, fs, keyDesktopNotify)
	printFlagIfExists(w, fs, keyNotifySuccess)
	printFlagIfExists(w, fs, keyDebug)
	printFlagIfExists(w, fs, keyLogFile)
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Information:\n")
	printFlagIfExists(w, fs, "version")
	printFlagIfExists(w, fs, "help")
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Environment variables (also accepted as keys in autopush.yaml):\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_VAULT            Path to the vault\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_SETTINGS_FILE    Settings file\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_GIT_BIN          git executable\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_QUIET            Hide informational messages (true/false)\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_DESKTOP_NOTIFY   Desktop notifications (true/false)\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_NOTIFY_SUCCESS   Notice after every push (true/false)\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_DEBUG            Enable debug logging (true/false)\n")
	_, _ = fmt.Fprintf(w, "  AUTOPUSH_LOG_FILE         Path to log file\n")
}

// printFlagIfExists prints a flag's usage if it exists in the FlagSet
func printFlagIfExists(w io.Writer, fs *flag.FlagSet, name string) {
	f := fs.Lookup(name)
	if f == nil {
		return
	}

	defaultValue := f.DefValue
	if defaultValue != "" {
		defaultValue = fmt.Sprintf(" (default: %s)", defaultValue)
	}

	_, _ = fmt.Fprintf(w, "  -%s%s: %s\n", f.Name, defaultValue, f.Usage)
}

// ParseFlags parses args (without the program name) and updates the config.
// A help flag sets ShowHelp instead of failing. Positional arguments are
// left in Args.
func (c *Config) ParseFlags(args []string, stdout io.Writer) error {
	for _, arg := range args {
		if arg == "--help" || arg == "-help" || arg == "-h" || arg == "--h" {
			c.ShowHelp = true
			return nil
		}
	}

	fs := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	c.SetupFlags(fs)

	if err := fs.Parse(args); err != nil {
		helpFS := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ContinueOnError)
		c.SetupFlags(helpFS)

		_, _ = fmt.Fprintf(stdout, "Error: %s\n\n", err)
		c.PrintUsage(helpFS, stdout)

		return autopushErrors.NewConfigError("flags", nil, autopushErrors.Wrap(autopushErrors.ErrInvalidFlag, err.Error()))
	}

	if c.ParsedQuiet != nil {
		c.Verbose = !(*c.ParsedQuiet)
	}
	c.Args = fs.Args()

	return nil
}

// Finalize validates and finalizes the configuration
func (c *Config) Finalize() error {
	if c.VaultPath == "" {
		var err error
		c.VaultPath, err = os.Getwd()
		if err != nil {
			return autopushErrors.NewConfigError("vaultPath", "", autopushErrors.Wrap(err, "failed to get current directory"))
		}
	}

	absVaultPath, err := filepath.Abs(expandHome(c.VaultPath))
	if err != nil {
		return autopushErrors.NewConfigError("vaultPath", c.VaultPath, autopushErrors.Wrap(err, "failed to resolve absolute path"))
	}
	c.VaultPath = absVaultPath

	switch {
	case c.SettingsFile == "":
		c.SettingsFile = filepath.Join(c.VaultPath, SettingsDirName, SettingsFileName)
	case !filepath.IsAbs(expandHome(c.SettingsFile)):
		c.SettingsFile = filepath.Join(c.VaultPath, c.SettingsFile)
	default:
		c.SettingsFile = expandHome(c.SettingsFile)
	}

	if c.GitBin == "" {
		c.GitBin = DefaultGitBin
	}
	if _, err := exec.LookPath(c.GitBin); err != nil {
		return autopushErrors.NewConfigError("gitBin", c.GitBin,
			autopushErrors.Wrap(autopushErrors.ErrInvalidConfiguration, err.Error()))
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFile(c.VaultPath)
	}
	if c.Debug {
		if err := os.MkdirAll(filepath.Dir(c.LogFile), 0o700); err != nil {
			return autopushErrors.NewConfigError("logFile", c.LogFile, autopushErrors.Wrap(err, "cannot create log directory"))
		}
	}

	return nil
}

// DefaultLogFile returns the per-vault log path under the XDG data home.
func DefaultLogFile(vaultPath string) string {
	logDir := os.Getenv("XDG_DATA_HOME")
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			logDir = filepath.Join(homeDir, ".local", "share")
		} else {
			logDir = os.TempDir()
		}
	}

	vaultHash := fmt.Sprintf("%x", sha256OfString(vaultPath)[:8])
	return filepath.Join(logDir, "autopush", "logs", fmt.Sprintf("autopush-%s.log", vaultHash))
}

func getString(v *viper.Viper, key, defaultValue string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return defaultValue
}

func getBool(v *viper.Viper, key string, defaultValue bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return defaultValue
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// sha256OfString returns the SHA256 hash of a string
func sha256OfString(input string) []byte {
	hash := sha256.Sum256([]byte(input))
	return hash[:]
}
