package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	History HistoryConfig `json:"history" yaml:"history"`
	Effort  EffortConfig  `json:"effort" yaml:"effort"`
	Scoring ScoringConfig `json:"scoring" yaml:"scoring"`
	Bugfix  BugfixConfig  `json:"bugfix" yaml:"bugfix"`
	Filters FilterConfig  `json:"filters" yaml:"filters"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Linker  LinkerConfig  `json:"linker" yaml:"linker"`
	Jira    JiraConfig    `json:"jira" yaml:"jira"`
	SATD    SATDConfig    `json:"satd" yaml:"satd"`
}

// HistoryConfig controls commit history traversal.
type HistoryConfig struct {
	WindowDays   int    `json:"windowDays" yaml:"windowDays"`     // Default: 180
	Branch       string `json:"branch" yaml:"branch"`             // Default: HEAD
	Backend      string `json:"backend" yaml:"backend"`           // go-git or git-cli
	RenameDetect string `json:"renameDetect" yaml:"renameDetect"` // off, simple, aggressive
	// Include and Exclude restrict which changed paths count as touches.
	// Both default to empty so every modified file is counted.
	Include []string `json:"include" yaml:"include"`
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// EffortConfig holds effort proxy configuration.
type EffortConfig struct {
	// KPenalty is the cost of one unit of cyclomatic complexity in lines of code.
	KPenalty  float64 `json:"kPenalty" yaml:"kPenalty"`
	Analyzer  string  `json:"analyzer" yaml:"analyzer"`   // native or lizard
	LizardCSV string  `json:"lizardCsv" yaml:"lizardCsv"` // Path to `lizard --csv` output
}

// ScoringConfig holds TDR-W scoring configuration.
type ScoringConfig struct {
	Weights WeightConfig `json:"weights" yaml:"weights"`
}

// WeightConfig holds the pain weights.
type WeightConfig struct {
	Commit float64 `json:"commit" yaml:"commit"`
	Bug    float64 `json:"bug" yaml:"bug"`
}

// BugfixConfig holds bugfix detection configuration.
type BugfixConfig struct {
	Patterns []string `json:"patterns" yaml:"patterns"` // Regex patterns for bugfix commit detection
}

// FilterConfig holds the source file exclusions of the complexity analyzer
// and the SATD scanner. Commit history is never filtered by it.
type FilterConfig struct {
	Exclude []string `json:"exclude" yaml:"exclude"`
}

// ReportConfig holds presentation options.
type ReportConfig struct {
	Top int `json:"top" yaml:"top"`
}

// LinkerConfig holds commit-to-issue linking options.
type LinkerConfig struct {
	IssueKeyPattern string `json:"issueKeyPattern" yaml:"issueKeyPattern"`
	RepoName        string `json:"repoName" yaml:"repoName"`
	IssuesFile      string `json:"issuesFile" yaml:"issuesFile"`
	Output          string `json:"output" yaml:"output"`
}

// JiraConfig holds issue tracker access options.
type JiraConfig struct {
	BaseURL  string `json:"baseUrl" yaml:"baseUrl"`
	Project  string `json:"project" yaml:"project"`
	JQL      string `json:"jql" yaml:"jql"`
	PageSize int    `json:"pageSize" yaml:"pageSize"`
	Username string `json:"-" yaml:"-"`
	APIToken string `json:"-" yaml:"-"`
}

// SATDConfig holds self-admitted technical debt detection options.
type SATDConfig struct {
	Language string   `json:"language" yaml:"language"`
	Patterns []string `json:"patterns" yaml:"patterns"`
}

// DefaultBugPattern matches GitHub style fix references and common fix keywords.
const DefaultBugPattern = `\b(fix(es|ed)?\s*#\d+)\b|bug\b|patch\b`

// DefaultExcludePatterns skips tests, docs, virtualenvs and config files during analysis.
var DefaultExcludePatterns = []string{
	"*/test/*",
	"*/tests/*",
	"*/docs/*",
	"*/.tox/*",
	"*/venv/*",
	"*/node_modules/*",
	"*/.git/*",
	"*.md",
	"*.xml",
	"*.yml",
	"*.json",
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		History: HistoryConfig{
			WindowDays:   180,
			Branch:       "HEAD",
			Backend:      "go-git",
			RenameDetect: "simple",
			Include:      []string{},
			Exclude:      []string{},
		},
		Effort: EffortConfig{
			KPenalty: 5,
			Analyzer: "native",
		},
		Scoring: ScoringConfig{
			Weights: WeightConfig{
				Commit: 0.5,
				Bug:    1.0,
			},
		},
		Bugfix: BugfixConfig{
			Patterns: []string{DefaultBugPattern},
		},
		Filters: FilterConfig{
			Exclude: append([]string(nil), DefaultExcludePatterns...),
		},
		Report: ReportConfig{
			Top: 20,
		},
		Linker: LinkerConfig{
			IssueKeyPattern: `\b([A-Z][A-Z0-9]+-\d+)\b`,
			IssuesFile:      "issues.json",
			Output:          "bug-fixes.json",
		},
		Jira: JiraConfig{
			BaseURL:  "https://issues.apache.org/jira",
			PageSize: 100,
		},
		SATD: SATDConfig{
			Language: "go",
		},
	}
}

// Validate checks that the configuration values are usable.
func (c *Config) Validate() error {
	if c.History.WindowDays <= 0 {
		return fmt.Errorf("history.windowDays must be positive, got %d", c.History.WindowDays)
	}
	if c.Effort.KPenalty < 0 {
		return fmt.Errorf("effort.kPenalty must not be negative, got %g", c.Effort.KPenalty)
	}
	if c.Scoring.Weights.Commit < 0 || c.Scoring.Weights.Bug < 0 {
		return fmt.Errorf("scoring weights must not be negative (commit=%g, bug=%g)",
			c.Scoring.Weights.Commit, c.Scoring.Weights.Bug)
	}
	for _, p := range c.Bugfix.Patterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid bugfix pattern %q: %w", p, err)
		}
	}
	if c.Linker.IssueKeyPattern != "" {
		if _, err := regexp.Compile(c.Linker.IssueKeyPattern); err != nil {
			return fmt.Errorf("invalid linker.issueKeyPattern: %w", err)
		}
	}
	switch c.Effort.Analyzer {
	case "", "native", "lizard":
	default:
		return fmt.Errorf("unknown effort analyzer %q (expected native or lizard)", c.Effort.Analyzer)
	}
	switch c.History.Backend {
	case "", "go-git", "git-cli":
	default:
		return fmt.Errorf("unknown history backend %q (expected go-git or git-cli)", c.History.Backend)
	}
	switch strings.ToLower(c.History.RenameDetect) {
	case "", "off", "none", "simple", "exact", "aggressive":
	default:
		return fmt.Errorf("unknown rename detection mode %q (expected off, simple or aggressive)", c.History.RenameDetect)
	}
	return nil
}

// ApplyEnv overrides Jira settings from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("TDRSPOTS_JIRA_URL"); v != "" {
		c.Jira.BaseURL = v
	}
	if v := os.Getenv("TDRSPOTS_JIRA_USER"); v != "" {
		c.Jira.Username = v
	}
	if v := os.Getenv("TDRSPOTS_JIRA_TOKEN"); v != "" {
		c.Jira.APIToken = v
	}
}

var configFileNames = []string{".tdrspots.json", ".tdrspots.yaml", ".tdrspots.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file in the working or home directory.
func findConfigFile() string {
	dirs := []string{"."}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		dirs = append(dirs, home)
	} else if envHome := os.Getenv("HOME"); envHome != "" {
		dirs = append(dirs, envHome)
	}
	for _, dir := range dirs {
		for _, name := range configFileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p
			}
		}
	}
	return ""
}

// SaveConfig saves configuration to a file.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
