package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/drift/pkg/drift/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "drift [path]",
		Short: "Audit a folder for content drift",
		Long: `Drift inventories every file under a directory, fingerprints its
content, and compares the result against the previous inventory to
classify each path as unchanged, modified, new, or missing.

Each run persists its inventory as a manifest file inside the audited
directory, so the next run has a baseline to compare against.

Examples:
  drift                        # Audit current directory
  drift ~/projects/site        # Audit a specific directory
  drift -o json .              # Machine-readable audit output
  drift --changes-only .       # Hide unchanged files
  drift snapshot .             # Record a manifest without comparing
  drift history .              # List recorded manifests
  drift config show            # Show configuration`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAudit,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/drift/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "pretty", "output format (pretty, plain, json, jsonl, yaml, csv)")
	rootCmd.PersistentFlags().StringSliceP("exclude", "e", nil, "exclude patterns (can be specified multiple times)")
	rootCmd.PersistentFlags().IntP("workers", "w", 0, "override worker count (0=auto)")
	rootCmd.PersistentFlags().Bool("follow-symlinks", false, "hash the targets of symlinks to regular files")
	rootCmd.PersistentFlags().Bool("no-cache", false, "bypass the digest cache, hash every file")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "minimal output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "debug output")

	// Audit flags
	rootCmd.Flags().StringP("manifest", "m", "", "compare against this manifest instead of the newest one")
	rootCmd.Flags().Bool("no-persist", false, "don't write a manifest for this run")
	rootCmd.Flags().Bool("changes-only", false, "omit unchanged files from table output")
	rootCmd.Flags().Bool("strict-manifest", false, "treat an unparseable prior manifest as a fatal error")
	rootCmd.Flags().Bool("fail-on-drift", false, "exit with status 2 when drift is detected")

	// Bind flags to viper
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("exclude", rootCmd.PersistentFlags().Lookup("exclude"))
	_ = viper.BindPFlag("workers", rootCmd.PersistentFlags().Lookup("workers"))
	_ = viper.BindPFlag("follow_symlinks", rootCmd.PersistentFlags().Lookup("follow-symlinks"))
	_ = viper.BindPFlag("no_cache", rootCmd.PersistentFlags().Lookup("no-cache"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("manifest_path", rootCmd.Flags().Lookup("manifest"))
	_ = viper.BindPFlag("no_persist", rootCmd.Flags().Lookup("no-persist"))
	_ = viper.BindPFlag("changes_only", rootCmd.Flags().Lookup("changes-only"))
	_ = viper.BindPFlag("strict_manifest", rootCmd.Flags().Lookup("strict-manifest"))
	_ = viper.BindPFlag("fail_on_drift", rootCmd.Flags().Lookup("fail-on-drift"))
}

// initConfig reads in config file and environment variables.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Set config name and type
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")

		// Add config paths in order of precedence
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			viper.AddConfigPath(filepath.Join(xdgConfigHome, "drift"))
		}

		homeDir, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(homeDir, ".config", "drift"))
		}
	}

	// Set environment variable prefix and enable auto env binding
	viper.SetEnvPrefix("DRIFT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	// Set defaults from config package
	config.SetDefaults(viper.GetViper())

	// Read config file (ignore if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// getVerbose returns true if verbose mode is enabled.
func getVerbose() bool {
	return viper.GetBool("verbose")
}

// getQuiet returns true if quiet mode is enabled.
func getQuiet() bool {
	return viper.GetBool("quiet")
}

// printVerbose prints a message if verbose mode is enabled.
func printVerbose(format string, args ...interface{}) {
	if getVerbose() && !getQuiet() {
		fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
	}
}

// printInfo prints a message if quiet mode is not enabled.
func printInfo(format string, args ...interface{}) {
	if !getQuiet() {
		fmt.Printf(format+"\n", args...)
	}
}

// printWarning prints a warning message to stderr.
func printWarning(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}
