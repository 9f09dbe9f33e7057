package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/parchmint/ingest-cli/internal/core/domain"
)

// duration is a TOML-friendly time.Duration ("30s", "5m").
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Config is the full ingest configuration as read from config.toml.
// Every field has a working default; an absent file yields a usable
// in-memory configuration.
type Config struct {
	// DataDir holds the sqlite database. Defaults to ~/.ingest.
	DataDir string `toml:"data_dir"`

	// DropDir is the watched drop directory.
	DropDir string `toml:"drop_dir"`

	// FailureDir receives quarantined artifacts of terminally failed
	// jobs. Defaults to <data_dir>/failed.
	FailureDir string `toml:"failure_dir"`

	// DefaultOrg is the organisation used when a command names none.
	DefaultOrg string `toml:"default_org"`

	Queue    QueueSection    `toml:"queue"`
	OCR      OCRSection      `toml:"ocr"`
	Pipeline PipelineSection `toml:"pipeline"`

	// OrgCacheTTL bounds staleness of cached organisation metadata.
	OrgCacheTTL duration `toml:"org_cache_ttl"`

	// Orgs holds per-organisation profiles. Organisations not listed
	// here process with defaults.
	Orgs []OrgSection `toml:"orgs"`
}

// QueueSection configures lease and retry behaviour.
type QueueSection struct {
	LeaseTimeout      duration `toml:"lease_timeout"`
	MaxAttempts       int      `toml:"max_attempts"`
	BackoffBase       duration `toml:"backoff_base"`
	BackoffCap        duration `toml:"backoff_cap"`
	AgeAlertThreshold duration `toml:"age_alert_threshold"`
}

// EngineSection points at one OCR service.
type EngineSection struct {
	Name    string   `toml:"name"`
	URL     string   `toml:"url"`
	Timeout duration `toml:"timeout"`
}

// OCRSection configures the two engines and the coordinator.
type OCRSection struct {
	Primary   EngineSection `toml:"primary"`
	Secondary EngineSection `toml:"secondary"`

	CallTimeout duration `toml:"call_timeout"`

	// Thresholds below which output routes to review, per document type.
	PrintedThreshold     float64 `toml:"printed_threshold"`
	HandwrittenThreshold float64 `toml:"handwritten_threshold"`
	MixedThreshold       float64 `toml:"mixed_threshold"`

	RequestsPerSecond float64 `toml:"requests_per_second"`
	BurstSize         int     `toml:"burst_size"`
	MaxConcurrent     int     `toml:"max_concurrent"`
}

// PipelineSection configures the worker pool.
type PipelineSection struct {
	Workers      int      `toml:"workers"`
	PollInterval duration `toml:"poll_interval"`
}

// OrgSection is one organisation's processing profile.
type OrgSection struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`

	// DocType is printed, handwritten or mixed. Empty means mixed.
	DocType string `toml:"doc_type"`

	// Chunking overrides; zero values fall back to the defaults.
	MinTokens         int `toml:"min_tokens"`
	MaxTokens         int `toml:"max_tokens"`
	TargetTokens      int `toml:"target_tokens"`
	OverlapTokens     int `toml:"overlap_tokens"`
	HeadingSplitLevel int `toml:"heading_split_level"`
}

// Load reads the configuration at path. A missing file is not an
// error; defaults apply. Path resolution order: explicit path, then
// ~/.ingest/config.toml.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, ".ingest", "config.toml")
	}

	cfg := &Config{}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, ".ingest")
		}
	}
	if c.DropDir == "" {
		c.DropDir = filepath.Join(c.DataDir, "drop")
	}
	if c.FailureDir == "" {
		c.FailureDir = filepath.Join(c.DataDir, "failed")
	}
	if c.DefaultOrg == "" {
		c.DefaultOrg = "default"
	}
	if c.OrgCacheTTL <= 0 {
		c.OrgCacheTTL = duration(5 * time.Minute)
	}
}

func (c *Config) validate() error {
	for _, org := range c.Orgs {
		if org.ID == "" {
			return fmt.Errorf("organisation profile without an id")
		}
		switch org.DocType {
		case "", string(domain.TypePrinted), string(domain.TypeHandwritten), string(domain.TypeMixed):
		default:
			return fmt.Errorf("organisation %s: unknown doc_type %q", org.ID, org.DocType)
		}
	}
	return nil
}

// DatabasePath is the sqlite file under the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "ingest.db")
}

// Durations converts the queue section to plain durations. Zero values
// pass through; the queue service substitutes its own defaults.
func (s QueueSection) Durations() (lease, base, ceiling, ageAlert time.Duration) {
	return time.Duration(s.LeaseTimeout), time.Duration(s.BackoffBase),
		time.Duration(s.BackoffCap), time.Duration(s.AgeAlertThreshold)
}

// Threshold values, with the calibrated defaults where unset.
func (s OCRSection) Thresholds() domain.ConfidenceThresholds {
	t := domain.DefaultThresholds()
	if s.PrintedThreshold > 0 {
		t[domain.TypePrinted] = s.PrintedThreshold
	}
	if s.HandwrittenThreshold > 0 {
		t[domain.TypeHandwritten] = s.HandwrittenThreshold
	}
	if s.MixedThreshold > 0 {
		t[domain.TypeMixed] = s.MixedThreshold
	}
	return t
}

// Organisation converts a profile row to the domain type.
func (s OrgSection) Organisation() *domain.Organisation {
	docType := domain.DocumentType(s.DocType)
	if s.DocType == "" {
		docType = domain.TypeMixed
	}
	return &domain.Organisation{
		ID:   s.ID,
		Name: s.Name,
		Chunking: domain.ChunkConfig{
			MinTokens:         s.MinTokens,
			MaxTokens:         s.MaxTokens,
			TargetTokens:      s.TargetTokens,
			OverlapTokens:     s.OverlapTokens,
			HeadingSplitLevel: s.HeadingSplitLevel,
		},
		DocType: docType,
	}
}
