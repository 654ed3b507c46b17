package config

import (
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/juju/errors"
	"gopkg.in/yaml.v2"

	"github.com/hailam/chaoslog/internal/mixer"
	"github.com/hailam/chaoslog/internal/ports"
	"github.com/hailam/chaoslog/internal/theme"
)

const dateLayout = "2006-01-02"

// Config holds every tunable and vocabulary of a generation run.
type Config struct {
	FileCount  int            `yaml:"file_count"`
	TargetSize ByteSize       `yaml:"target_size"`
	OutputDir  string         `yaml:"output_dir"`
	HitChance  float64        `yaml:"hit_chance"`
	Markers    []string       `yaml:"markers"`
	StartDate  Date           `yaml:"start_date"`
	EndDate    Date           `yaml:"end_date"`
	Formats    []ports.Format `yaml:"formats"`
	// Prefixes name the server type at the front of every unit file name.
	Prefixes  []string `yaml:"prefixes"`
	BatchSize int      `yaml:"batch_size"`
	// Seed makes a run reproducible; 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
	// Manifest is the ground-truth file name inside OutputDir; "" disables it.
	Manifest   string           `yaml:"manifest"`
	Vocabulary theme.Vocabulary `yaml:"vocabulary"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		FileCount:  100,
		TargetSize: 20 * humanize.MiByte,
		OutputDir:  "server_logs_chaos",
		HitChance:  0.25,
		Markers:    []string{"CRITICO", "FATALE", "PASSWORD_PLAIN_TEXT", "DB_DEADLOCK", "NULL_POINTER"},
		StartDate:  NewDate(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)),
		EndDate:    NewDate(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)),
		Formats:    ports.AllFormats(),
		Prefixes:   []string{"apache_access", "catalina", "syslog", "db_slow_query", "error", "trace"},
		BatchSize:  mixer.DefaultBatchSize,
		Manifest:   "manifest.json",
		Vocabulary: theme.DefaultVocabulary(),
	}
}

// Load reads a YAML file on top of the defaults. Keys missing from the file
// keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Annotatef(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, errors.Annotatef(err, "unmarshaling yaml from %s", path)
	}
	if err := cfg.NormalizeFormats(); err != nil {
		return cfg, errors.Annotatef(err, "config %s", path)
	}
	return cfg, nil
}

// NormalizeFormats maps format aliases ("log", "tgz") to their canonical value.
func (c *Config) NormalizeFormats() error {
	for i, f := range c.Formats {
		parsed, err := ports.ParseFormat(string(f))
		if err != nil {
			return errors.NotValidf("format %q", f)
		}
		c.Formats[i] = parsed
	}
	return nil
}

// Validate reports the first configuration problem. Every error it returns
// satisfies errors.IsNotValid.
func (c Config) Validate() error {
	switch {
	case c.FileCount < 0:
		return errors.NotValidf("file count %d", c.FileCount)
	case c.TargetSize <= 0:
		return errors.NotValidf("target size %d", c.TargetSize)
	case c.OutputDir == "":
		return errors.NotValidf("empty output dir")
	case c.HitChance < 0 || c.HitChance > 1:
		return errors.NotValidf("hit chance %v", c.HitChance)
	case len(c.Markers) == 0:
		return errors.NotValidf("empty marker vocabulary")
	case !c.EndDate.After(c.StartDate.Time):
		return errors.NotValidf("date range %s..%s", c.StartDate, c.EndDate)
	case len(c.Formats) == 0:
		return errors.NotValidf("empty format list")
	case len(c.Prefixes) == 0:
		return errors.NotValidf("empty prefix list")
	case c.BatchSize <= 0:
		return errors.NotValidf("batch size %d", c.BatchSize)
	}

	for _, f := range c.Formats {
		if f.Ext() == "" {
			return errors.NotValidf("format %q", f)
		}
	}
	for _, m := range c.Markers {
		if m == "" || strings.ContainsAny(m, " \t\r\n") {
			return errors.NotValidf("marker %q", m)
		}
	}
	if err := c.Vocabulary.Validate(); err != nil {
		return errors.NewNotValid(err, "vocabulary")
	}

	// A marker hidden in ordinary records would break the single-carrier
	// ground truth.
	for _, m := range c.Markers {
		if theme.CanOccur(m, c.Vocabulary) {
			return errors.NotValidf("marker %q (can occur in ordinary records)", m)
		}
	}
	// Overlapping markers would be counted twice when scanning.
	for i, a := range c.Markers {
		for j, b := range c.Markers {
			if i != j && strings.Contains(b, a) {
				return errors.NotValidf("marker %q overlapping marker %q", a, b)
			}
		}
	}
	return nil
}

// ByteSize is a byte count that YAML may spell as a number or as "20MiB".
type ByteSize int64

func (b *ByteSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var n int64
	if err := unmarshal(&n); err == nil {
		*b = ByteSize(n)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return errors.Trace(err)
	}
	v, err := humanize.ParseBytes(s)
	if err != nil {
		return errors.Annotatef(err, "parsing size %q", s)
	}
	*b = ByteSize(v)
	return nil
}

func (b ByteSize) MarshalYAML() (interface{}, error) {
	return humanize.IBytes(uint64(b)), nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// Date is a calendar day in UTC, spelled 2006-01-02 in YAML.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t.UTC()}
}

// ParseDate parses a 2006-01-02 day or an RFC 3339 timestamp.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return NewDate(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, errors.NotValidf("date %q", s)
	}
	return NewDate(t), nil
}

func (d *Date) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return errors.Trace(err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return errors.Trace(err)
	}
	*d = parsed
	return nil
}

func (d Date) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

func (d Date) String() string {
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 {
		return d.Format(dateLayout)
	}
	return d.Format(time.RFC3339)
}
