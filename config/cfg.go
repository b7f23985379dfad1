package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	SessionConfig struct {
		// stack could be empty (s1), "s7", "s7." or "mc.s7.exacttarget.com"
		Stack        string        `yaml:"stack"`
		BaseURL      string        `yaml:"base_url,omitempty" validate:"omitempty,url"`
		CookieSource CookieSource  `yaml:"cookie_source" validate:"gte=0"`
		Cookie       SecretString  `yaml:"cookie,omitempty"`
		BrowserURL   string        `yaml:"browser_url,omitempty" validate:"omitempty,url"`
		ExpiryMargin time.Duration `yaml:"expiry_margin" validate:"gte=0"`
	}

	APIConfig struct {
		Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
		PageSize         int           `yaml:"page_size" validate:"min=1,max=500"`
		CategoryPageSize int           `yaml:"category_page_size" validate:"min=1,max=500"`
		AssetTypes       []AssetType   `yaml:"asset_types" validate:"min=1,dive,gte=0"`
	}

	CompileConfig struct {
		ResolveBlocks bool  `yaml:"resolve_blocks"`
		IncludeImages bool  `yaml:"include_images"`
		MaxDepth      int   `yaml:"max_depth" validate:"min=0,max=50"`
		Concurrency   int   `yaml:"concurrency" validate:"min=1,max=32"`
		MaxImageSize  int64 `yaml:"max_image_size" validate:"gte=0"`
	}

	S3Config struct {
		Region          string       `yaml:"region,omitempty"`
		Endpoint        string       `yaml:"endpoint,omitempty" validate:"omitempty,url"`
		AccessKeyID     string       `yaml:"access_key_id,omitempty"`
		SecretAccessKey SecretString `yaml:"secret_access_key,omitempty"`
		UsePathStyle    bool         `yaml:"use_path_style"`
	}

	ExportConfig struct {
		Format                BundleFormat `yaml:"format" validate:"gte=0"`
		Destination           string       `yaml:"destination,omitempty"`
		NameTemplate          string       `yaml:"name_template,omitempty"`
		FileNameTransliterate bool         `yaml:"file_name_transliterate"`
		Markdown              bool         `yaml:"markdown"`
		FixZip                bool         `yaml:"fix_zip"`
		Manifest              bool         `yaml:"manifest"`
		S3                    S3Config     `yaml:"s3"`
	}

	BridgeConfig struct {
		Listen string `yaml:"listen" validate:"required,hostname_port"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Session   SessionConfig  `yaml:"session"`
		API       APIConfig      `yaml:"api"`
		Compile   CompileConfig  `yaml:"compile"`
		Export    ExportConfig   `yaml:"export"`
		Bridge    BridgeConfig   `yaml:"bridge"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	NameTemplateFieldName TemplateFieldName = "name_template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(NameTemplateFieldName)),
)

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we know about are allowed, so no yaml.Unmarshal here
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if !process {
		return cfg, nil
	}
	if err := gencfg.Sanitize(cfg); err != nil {
		return nil, err
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.Session.CookieSource == CookieSourceBrowser && len(cfg.Session.BrowserURL) == 0 {
		return nil, fmt.Errorf("session.browser_url is required when cookie_source is %q", CookieSourceBrowser)
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = unmarshalConfig(data, cfg, true); err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

// Dump returns configuration as YAML, secrets are masked.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
