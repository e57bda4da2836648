package config

import (
	domainerr "folio/internal/domain/errors"
	"gopkg.in/yaml.v3"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Blog    BlogConfig    `yaml:"blog"`
	Index   IndexConfig   `yaml:"index"`
	Log     LogConfig     `yaml:"log"`
}

type SiteConfig struct {
	Title   string `yaml:"title"`
	SiteURL string `yaml:"site_url"`
	Author  string `yaml:"author"`
}

type SourceKind string

const (
	SourceFS SourceKind = "fs"
	SourceS3 SourceKind = "s3"
)

type ContentConfig struct {
	Source     SourceKind `yaml:"source"`
	Dir        string     `yaml:"dir"`
	Extensions []string   `yaml:"extensions"`
	S3         S3Config   `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
)

type BlogConfig struct {
	Mode Mode `yaml:"mode"`
	// Popular is the curated, ordered list of popular post slugs.
	Popular      []string      `yaml:"popular"`
	PopularLimit int           `yaml:"popular_limit"`
	RecentLimit  int           `yaml:"recent_limit"`
	TagLimit     int           `yaml:"tag_limit"`
	LoadTimeout  time.Duration `yaml:"load_timeout"`
}

func (b BlogConfig) Production() bool { return b.Mode == ModeProduction }

type IndexConfig struct {
	JSONPath    string        `yaml:"json_path"`
	DBPath      string        `yaml:"db_path"`
	LockTimeout time.Duration `yaml:"lock_timeout"`
}

type LogConfig struct {
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"` // megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // days
	Compress   bool   `yaml:"compress"`
}

func Default() Config {
	return Config{
		Site: SiteConfig{
			Title: "Folio",
		},
		Content: ContentConfig{
			Source:     SourceFS,
			Dir:        "content/articles",
			Extensions: []string{".md", ".mdx", ".markdown"},
		},
		Blog: BlogConfig{
			Mode:         ModeDevelopment,
			PopularLimit: 3,
			RecentLimit:  5,
			TagLimit:     10,
			LoadTimeout:  10 * time.Second,
		},
		Index: IndexConfig{
			JSONPath:    "public/posts-meta.json",
			DBPath:      ".folio/index.db",
			LockTimeout: time.Second,
		},
		Log: LogConfig{
			MaxSize:    128,
			MaxBackups: 5,
			MaxAge:     16,
		},
	}
}

func (c Config) Validate() error {
	var ve domainerr.ValidationError

	if strings.TrimSpace(c.Site.Title) == "" {
		ve.Add("site.title", "must not be empty")
	}
	if u := strings.TrimSpace(c.Site.SiteURL); u != "" && !isValidAbsURL(u) {
		ve.Add("site.site_url", "must be a valid absolute URL")
	}

	switch c.Content.Source {
	case SourceFS:
		if strings.TrimSpace(c.Content.Dir) == "" {
			ve.Add("content.dir", "must not be empty")
		}
	case SourceS3:
		if strings.TrimSpace(c.Content.S3.Endpoint) == "" {
			ve.Add("content.s3.endpoint", "must not be empty")
		}
		if strings.TrimSpace(c.Content.S3.Bucket) == "" {
			ve.Add("content.s3.bucket", "must not be empty")
		}
	default:
		ve.Add("content.source", "must be 'fs' or 's3'")
	}
	for _, ext := range c.Content.Extensions {
		if strings.TrimSpace(ext) == "" {
			ve.Add("content.extensions", "must not contain empty entries")
			break
		}
	}

	switch c.Blog.Mode {
	case ModeProduction, ModeDevelopment:
	default:
		ve.Add("blog.mode", "must be 'production' or 'development'")
	}
	if c.Blog.PopularLimit < 0 {
		ve.Add("blog.popular_limit", "must not be negative")
	}
	if c.Blog.RecentLimit < 0 {
		ve.Add("blog.recent_limit", "must not be negative")
	}
	if c.Blog.TagLimit < 0 {
		ve.Add("blog.tag_limit", "must not be negative")
	}
	if c.Blog.LoadTimeout < 0 {
		ve.Add("blog.load_timeout", "must not be negative")
	}

	if c.Index.LockTimeout < 0 {
		ve.Add("index.lock_timeout", "must not be negative")
	}

	if c.Log.MaxSize < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		ve.Add("log", "rotation limits must not be negative")
	}

	if ve.HasAny() {
		return ve
	}
	return nil
}

func isValidAbsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// Parse overlays YAML data on Default. It does not validate.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Overlay adjusts a parsed config before it is validated.
type Overlay func(*Config)

func Load(path string, overlays ...Overlay) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), err
	}
	cfg, err := Parse(data)
	if err != nil {
		return cfg, err
	}
	return finish(cfg, overlays)
}

// LoadOrDefault is Load, except a missing file yields the defaults.
func LoadOrDefault(path string, overlays ...Overlay) (Config, error) {
	cfg, err := Load(path, overlays...)
	if err != nil && os.IsNotExist(err) {
		return finish(Default(), overlays)
	}
	return cfg, err
}

func finish(cfg Config, overlays []Overlay) (Config, error) {
	for _, o := range overlays {
		o(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
