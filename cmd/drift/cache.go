package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jamesainslie/drift/pkg/drift/config"
)

// resolveCachePath honors a configured cache.path, falling back to the
// XDG default. Must match the resolution the audit path uses.
func resolveCachePath() string {
	if path := viper.GetString("cache.path"); path != "" {
		if expanded, err := config.ExpandPath(path); err == nil {
			return expanded
		}
		return path
	}
	return config.DefaultCachePath()
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the digest cache",
	Long: `Commands for managing the drift digest cache.

The cache stores content digests keyed by file size and modification
time to speed up repeat audits of the same directories. A stale or
missing cache never changes an audit outcome, only its speed.
Cache data is stored in the XDG cache directory (typically
~/.cache/drift/digests).`,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all cached digests",
	Long:  `Removes all cached digests. The next audit will hash every file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := resolveCachePath()

		if _, err := os.Stat(cachePath); os.IsNotExist(err) {
			fmt.Println("Cache is already empty.")
			return nil
		}

		if err := os.RemoveAll(cachePath); err != nil {
			return fmt.Errorf("failed to clear cache: %w", err)
		}

		fmt.Println("Cache cleared.")
		return nil
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Displays information about the cache including its location, size, and last modified time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath := resolveCachePath()

		info, err := os.Stat(cachePath)
		if os.IsNotExist(err) {
			fmt.Println("Cache: empty (no cache directory)")
			fmt.Printf("Cache location: %s\n", cachePath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat cache: %w", err)
		}

		// Get directory size
		var size int64
		var fileCount int
		err = filepath.Walk(cachePath, func(_ string, info os.FileInfo, err error) error {
			if err == nil && !info.IsDir() {
				size += info.Size()
				fileCount++
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to calculate cache size: %w", err)
		}

		fmt.Printf("Cache location: %s\n", cachePath)
		fmt.Printf("Cache size: %.2f MB\n", float64(size)/1024/1024)
		fmt.Printf("Cache files: %d\n", fileCount)
		fmt.Printf("Last modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))

		return nil
	},
}

var cachePathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show cache location",
	Long:  `Prints the path to the cache directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(resolveCachePath())
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cachePathCmd)
	rootCmd.AddCommand(cacheCmd)
}
