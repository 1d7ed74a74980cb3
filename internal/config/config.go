// internal/config/config.go
//
// This package handles configuration and the .chalkline directory structure.
// Every project that uses Chalkline gets a .chalkline/ folder created in its
// root, holding the config file, logs, and run artifacts.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// ChalklineDir is the name of the directory we create in each project
	ChalklineDir = ".chalkline"

	defaultRosterPath      = "roster.csv"
	defaultCredentialsPath = "service-account.json"
	defaultModel           = "gemini-2.5-flash"
	defaultMaxTurns        = 3
)

const defaultProjectConfigYAML = `# chalkline project configuration
version: 1

# Tracker export the plan scan walks. Column letters name where the lesson
# id, the readiness flag, and the folder link live; the header row is skipped.
roster:
  path: roster.csv
  id_column: A
  ready_column: E
  folder_column: F

# Tracker spreadsheet the standards sync writes into. The id can also be
# supplied through the SPREADSHEET_ID environment variable.
spreadsheet:
  id: ""
  key_column: A
  standards_column: P
  # tab: Sheet1

# Service account key used for Drive, Docs and Sheets access. Overridable
# with GOOGLE_APPLICATION_CREDENTIALS.
credentials: service-account.json

agent:
  model: gemini-2.5-flash
  max_turns: 3
`

// RosterConfig locates the roster export and names its columns.
type RosterConfig struct {
	Path         string `yaml:"path"`
	IDColumn     string `yaml:"id_column"`
	ReadyColumn  string `yaml:"ready_column"`
	FolderColumn string `yaml:"folder_column"`
}

// SpreadsheetConfig names the tracker spreadsheet and its relevant columns.
type SpreadsheetConfig struct {
	ID              string `yaml:"id"`
	KeyColumn       string `yaml:"key_column"`
	StandardsColumn string `yaml:"standards_column"`
	Tab             string `yaml:"tab,omitempty"`
}

// AgentConfig tunes the standards extraction agent. The API key comes from
// the environment only and is never written back to disk.
type AgentConfig struct {
	Model    string `yaml:"model"`
	MaxTurns int    `yaml:"max_turns"`
	APIKey   string `yaml:"-"`
}

// ProjectConfig models .chalkline/config.yaml.
type ProjectConfig struct {
	Version     int               `yaml:"version"`
	Roster      RosterConfig      `yaml:"roster"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`
	Credentials string            `yaml:"credentials"`
	Agent       AgentConfig       `yaml:"agent"`
}

// Config holds the runtime configuration for Chalkline.
type Config struct {
	// ProjectDir is the directory where the user ran `chalkline` from
	ProjectDir string

	// ChalklineProjectDir is where the workspace lives, normally
	// ProjectDir/.chalkline. CHALKLINE_HOME relocates it.
	ChalklineProjectDir string

	Project ProjectConfig
}

// InitChalklineDir creates the .chalkline directory structure in the given
// project directory. Called by both entry points before anything else runs.
//
// Structure created:
// .chalkline/
// ├── config.yaml   <- Project configuration, seeded with defaults
// ├── logs/         <- Append-only tool log
// └── run/          <- Logbook and run artifacts (plan links, results, report)
func InitChalklineDir(projectDir string) error {
	chalklineDir := chalklineDirFor(projectDir)

	dirs := []string{
		filepath.Join(chalklineDir, "logs"),
		filepath.Join(chalklineDir, "run"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return ensureProjectConfig(filepath.Join(chalklineDir, "config.yaml"))
}

// NewConfig creates a Config populated from .chalkline/config.yaml plus
// environment overrides.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:          projectDir,
		ChalklineProjectDir: chalklineDirFor(projectDir),
		Project:             defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LogsDir returns the path to the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.ChalklineProjectDir, "logs")
}

// RunDir returns the directory holding the logbook and run artifacts.
func (c *Config) RunDir() string {
	return filepath.Join(c.ChalklineProjectDir, "run")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.ChalklineProjectDir, "config.yaml")
}

// RosterPath returns the resolved path of the roster export.
func (c *Config) RosterPath() string {
	return c.Project.Roster.Path
}

// CredentialsPath returns the resolved service account key path.
func (c *Config) CredentialsPath() string {
	return c.Project.Credentials
}

// SpreadsheetID returns the tracker spreadsheet id, possibly empty.
func (c *Config) SpreadsheetID() string {
	return c.Project.Spreadsheet.ID
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			c.Project.normalize(c.ProjectDir)
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var parsed ProjectConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize(c.ProjectDir)
	if err := parsed.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	c.Project = parsed
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("SPREADSHEET_ID")); v != "" {
		c.Project.Spreadsheet.ID = v
	}
	if v := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")); v != "" {
		c.Project.Credentials = resolvePath(c.ProjectDir, v)
	}
	if v := strings.TrimSpace(os.Getenv("CHALKLINE_MODEL")); v != "" {
		c.Project.Agent.Model = v
	}
	if v := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); v != "" {
		c.Project.Agent.APIKey = v
	}
}

func defaultProjectConfig() ProjectConfig {
	pc := ProjectConfig{Version: 1}
	pc.applyDefaults()
	return pc
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Roster.Path) == "" {
		pc.Roster.Path = defaultRosterPath
	}
	if strings.TrimSpace(pc.Roster.IDColumn) == "" {
		pc.Roster.IDColumn = "A"
	}
	if strings.TrimSpace(pc.Roster.ReadyColumn) == "" {
		pc.Roster.ReadyColumn = "E"
	}
	if strings.TrimSpace(pc.Roster.FolderColumn) == "" {
		pc.Roster.FolderColumn = "F"
	}
	if strings.TrimSpace(pc.Spreadsheet.KeyColumn) == "" {
		pc.Spreadsheet.KeyColumn = "A"
	}
	if strings.TrimSpace(pc.Spreadsheet.StandardsColumn) == "" {
		pc.Spreadsheet.StandardsColumn = "P"
	}
	if strings.TrimSpace(pc.Credentials) == "" {
		pc.Credentials = defaultCredentialsPath
	}
	if strings.TrimSpace(pc.Agent.Model) == "" {
		pc.Agent.Model = defaultModel
	}
	if pc.Agent.MaxTurns == 0 {
		pc.Agent.MaxTurns = defaultMaxTurns
	}
}

func (pc *ProjectConfig) normalize(base string) {
	pc.Roster.Path = resolvePath(base, pc.Roster.Path)
	pc.Roster.IDColumn = normalizeColumn(pc.Roster.IDColumn)
	pc.Roster.ReadyColumn = normalizeColumn(pc.Roster.ReadyColumn)
	pc.Roster.FolderColumn = normalizeColumn(pc.Roster.FolderColumn)
	pc.Spreadsheet.ID = strings.TrimSpace(pc.Spreadsheet.ID)
	pc.Spreadsheet.KeyColumn = normalizeColumn(pc.Spreadsheet.KeyColumn)
	pc.Spreadsheet.StandardsColumn = normalizeColumn(pc.Spreadsheet.StandardsColumn)
	pc.Spreadsheet.Tab = strings.TrimSpace(pc.Spreadsheet.Tab)
	pc.Credentials = resolvePath(base, pc.Credentials)
	pc.Agent.Model = strings.TrimSpace(pc.Agent.Model)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if pc.Roster.Path == "" {
		return fmt.Errorf("roster.path is required")
	}
	for name, col := range map[string]string{
		"roster.id_column":             pc.Roster.IDColumn,
		"roster.ready_column":          pc.Roster.ReadyColumn,
		"roster.folder_column":         pc.Roster.FolderColumn,
		"spreadsheet.key_column":       pc.Spreadsheet.KeyColumn,
		"spreadsheet.standards_column": pc.Spreadsheet.StandardsColumn,
	} {
		if !isColumnRef(col) {
			return fmt.Errorf("%s: %q is not a column letter", name, col)
		}
	}
	if pc.Agent.MaxTurns < 1 {
		return fmt.Errorf("agent.max_turns must be >= 1")
	}
	if pc.Agent.Model == "" {
		return fmt.Errorf("agent.model is required")
	}
	return nil
}

func normalizeColumn(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func isColumnRef(value string) bool {
	if value == "" || len(value) > 3 {
		return false
	}
	for _, r := range value {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func chalklineDirFor(projectDir string) string {
	if home := strings.TrimSpace(os.Getenv("CHALKLINE_HOME")); home != "" {
		return filepath.Join(home, ChalklineDir)
	}
	return filepath.Join(projectDir, ChalklineDir)
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}
