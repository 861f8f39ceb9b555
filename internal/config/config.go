package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/naoray/hubber/internal/labels"
)

const (
	FileName  = "hubber.yaml"
	EnvPrefix = "HUBBER"

	DefaultBaseBranch     = "master"
	DefaultLabelPreset    = "workflow"
	DefaultRequestTimeout = 30 * time.Second
)

// Where the access token came from.
const (
	TokenSourceNone   = ""
	TokenSourceConfig = "config"
	TokenSourceEnv    = "env"
)

// Config is the global hubber configuration.
type Config struct {
	AccessToken       string                    `mapstructure:"access_token"`
	APIURL            string                    `mapstructure:"api_url"`
	Name              string                    `mapstructure:"name"`
	Email             string                    `mapstructure:"email"`
	DefaultBaseBranch string                    `mapstructure:"default_base_branch"`
	MaxConcurrency    int                       `mapstructure:"max_concurrency"`
	RequestTimeout    time.Duration             `mapstructure:"request_timeout"`
	LabelPreset       string                    `mapstructure:"label_preset"`
	WorkflowLabels    WorkflowLabels            `mapstructure:"workflow_labels"`
	RemoteRepos       []RemoteRepo              `mapstructure:"remote_repos"`
	Presets           map[string][]labels.Label `mapstructure:"presets"`

	// TokenSource is one of the TokenSource constants.
	TokenSource string `mapstructure:"-"`
}

// WorkflowLabels names the labels an issue moves through.
type WorkflowLabels struct {
	Todo   string `mapstructure:"todo" yaml:"todo"`
	Doing  string `mapstructure:"doing" yaml:"doing"`
	Review string `mapstructure:"review" yaml:"review"`
}

// RemoteRepo is a repository hubber has cloned or worked in.
type RemoteRepo struct {
	Owner string `mapstructure:"owner" yaml:"owner"`
	Repo  string `mapstructure:"repo" yaml:"repo"`
	URL   string `mapstructure:"url" yaml:"url,omitempty"`
}

// GetGlobalConfigDir returns the global config directory
func GetGlobalConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "hubber"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, ".config", "hubber"), nil
}

// ResolveDir returns override when set, the global config directory otherwise.
func ResolveDir(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	return GetGlobalConfigDir()
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(strings.TrimSuffix(FileName, filepath.Ext(FileName)))
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("access_token", "")
	v.SetDefault("api_url", "")
	v.SetDefault("name", "")
	v.SetDefault("email", "")
	v.SetDefault("default_base_branch", DefaultBaseBranch)
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("request_timeout", DefaultRequestTimeout.String())
	v.SetDefault("label_preset", DefaultLabelPreset)
	v.SetDefault("workflow_labels.todo", "PM: Tasks")
	v.SetDefault("workflow_labels.doing", "PM: Doing")
	v.SetDefault("workflow_labels.review", "PM: Ready for Review")
	return v
}

// Load reads hubber.yaml from dir. A missing file is not an error: the
// defaults and environment still apply.
func Load(dir string) (*Config, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(decodeHook())); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch {
	case os.Getenv(EnvPrefix+"_ACCESS_TOKEN") != "":
		cfg.TokenSource = TokenSourceEnv
	case cfg.AccessToken != "":
		cfg.TokenSource = TokenSourceConfig
	case os.Getenv("GITHUB_TOKEN") != "":
		cfg.AccessToken = os.Getenv("GITHUB_TOKEN")
		cfg.TokenSource = TokenSourceEnv
	}

	if cfg.MaxConcurrency < 0 {
		return nil, fmt.Errorf("parsing config: max_concurrency must not be negative, got %d", cfg.MaxConcurrency)
	}

	return &cfg, nil
}

func decodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		labelColorHook(),
	)
}

// labelColorHook normalises label colors written as "#rrggbb" or as bare
// numbers, which YAML decodes as integers.
func labelColorHook() mapstructure.DecodeHookFuncType {
	labelType := reflect.TypeOf(labels.Label{})
	return func(from, to reflect.Type, data any) (any, error) {
		if to != labelType || from.Kind() != reflect.Map {
			return data, nil
		}
		m, ok := data.(map[string]any)
		if !ok {
			return data, nil
		}

		var color string
		switch c := m["color"].(type) {
		case string:
			color = strings.TrimPrefix(strings.TrimSpace(c), "#")
		case int:
			color = strconv.Itoa(c)
			if len(color) != 3 && len(color) < 6 {
				color = strings.Repeat("0", 6-len(color)) + color
			}
		default:
			return data, nil
		}

		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		out["color"] = color
		return out, nil
	}
}

// SetToken stores token as the configured access token.
func (c *Config) SetToken(token string) {
	c.AccessToken = token
	c.TokenSource = TokenSourceConfig
}

// ClearToken forgets the stored access token.
func (c *Config) ClearToken() {
	c.AccessToken = ""
	c.TokenSource = TokenSourceConfig
}

// FindRepo returns the remembered repository owner/repo, or nil.
func (c *Config) FindRepo(owner, repo string) *RemoteRepo {
	for i := range c.RemoteRepos {
		if c.RemoteRepos[i].Owner == owner && c.RemoteRepos[i].Repo == repo {
			return &c.RemoteRepos[i]
		}
	}
	return nil
}

// IsCloned reports whether owner/repo has been remembered.
func (c *Config) IsCloned(owner, repo string) bool {
	return c.FindRepo(owner, repo) != nil
}

// RememberRepo records r, updating the URL of an existing entry. It reports
// whether anything changed.
func (c *Config) RememberRepo(r RemoteRepo) bool {
	if existing := c.FindRepo(r.Owner, r.Repo); existing != nil {
		if r.URL == "" || existing.URL == r.URL {
			return false
		}
		existing.URL = r.URL
		return true
	}
	c.RemoteRepos = append(c.RemoteRepos, r)
	return true
}
