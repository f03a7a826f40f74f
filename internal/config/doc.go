// Package config provides configuration handling for the autopush application.
//
// Configuration values are loaded with the following precedence:
//
//  1. Command-line flags (highest priority)
//  2. AUTOPUSH_* environment variables
//  3. The optional autopush.yaml config file
//  4. Default values (lowest priority)
//
// Environment variables and the config file are read through viper. The
// commit interval is deliberately absent: it is part of the persisted
// settings blob handled by the settings package.
//
// # Environment Variables
//
//	AUTOPUSH_VAULT            Path to the vault (default: current directory)
//	AUTOPUSH_SETTINGS_FILE    Settings blob (default: <vault>/.autopush/settings.json)
//	AUTOPUSH_GIT_BIN          git executable (default: git)
//	AUTOPUSH_QUIET            Hide informational messages (default: false)
//	AUTOPUSH_DESKTOP_NOTIFY   Mirror notices as desktop notifications (default: false)
//	AUTOPUSH_NOTIFY_SUCCESS   Notice after every successful push (default: false)
//	AUTOPUSH_DEBUG            Enable debug logging (default: false)
//	AUTOPUSH_LOG_FILE         Path to log file (default: ~/.local/share/autopush/logs/autopush-<hash>.log)
//
// # Usage
//
//	cfg := config.New()
//	if err := cfg.LoadFromEnvironment(); err != nil {
//	    return err
//	}
//	if err := cfg.ParseFlags(os.Args[1:], os.Stdout); err != nil {
//	    return err
//	}
//	if err := cfg.Finalize(); err != nil {
//	    return err
//	}
package config
