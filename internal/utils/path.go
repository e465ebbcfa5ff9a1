package utils

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/charmbracelet/log"
)

// AppName names the per-user config and data directories.
const AppName = "quicksearch"

// PathResolver locates the per-user config and data directories.
type PathResolver struct {
	homeDir   string
	configDir string
	dataDir   string
}

// NewPathResolver resolves directories for the current platform.
func NewPathResolver() *PathResolver {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}
	pr := &PathResolver{
		homeDir:   homeDir,
		configDir: getConfigDir(homeDir),
		dataDir:   getDataDir(homeDir),
	}
	log.Debugf("PathResolver initialized: configDir=%s, dataDir=%s", pr.configDir, pr.dataDir)
	return pr
}

func getConfigDir(homeDir string) string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, ".config", AppName)
	case "linux":
		if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, "."+AppName)
	}
}

func getDataDir(homeDir string) string {
	switch runtime.GOOS {
	case "linux":
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, AppName)
		}
		return filepath.Join(homeDir, ".local", "share", AppName)
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
	}
	return filepath.Join(getConfigDir(homeDir), "data")
}

// ConfigDir returns the config directory.
func (pr *PathResolver) ConfigDir() string {
	return pr.configDir
}

// HistoryDir returns where the history store lives.
func (pr *PathResolver) HistoryDir() string {
	return filepath.Join(pr.dataDir, "history")
}

// GetConfigPath returns the full path for a config file, falling back to a
// writable location when the config directory cannot be used.
func (pr *PathResolver) GetConfigPath(filename string) string {
	if ensureWritable(pr.configDir) {
		return filepath.Join(pr.configDir, filename)
	}
	for _, dir := range []string{
		filepath.Join(pr.homeDir, "."+AppName),
		filepath.Join(os.TempDir(), AppName),
	} {
		if ensureWritable(dir) {
			path := filepath.Join(dir, filename)
			log.Warnf("Using fallback config location: %s", path)
			return path
		}
	}
	tempPath := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", tempPath)
	return tempPath
}

func ensureWritable(dir string) bool {
	status := CheckDirStatus(dir)
	return status.Error == nil && status.Writable
}
