package folio

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/eringen/folio/contact"
	"github.com/eringen/folio/i18n"
	"github.com/eringen/folio/logging"
	"github.com/eringen/folio/taskflow"
)

const maxConfigFileSize = 1 << 20

// Config holds all configuration for a folio site.
type Config struct {
	Site     SiteConfig     `koanf:"site"`
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Admin    AdminConfig    `koanf:"admin"`
	Locale   LocaleConfig   `koanf:"locale"`
	Contact  ContactConfig  `koanf:"contact"`
	TaskFlow TaskFlowConfig `koanf:"taskflow"`
	Log      logging.Config `koanf:"log"`
}

// SiteConfig describes the site itself.
type SiteConfig struct {
	Name        string `koanf:"name"`        // default "Folio"
	URL         string `koanf:"url"`         // canonical base URL, default "http://localhost:3000"
	Description string `koanf:"description"` // RSS and meta description
	Author      string `koanf:"author"`
}

type ServerConfig struct {
	Addr            string        `koanf:"addr"`       // default ":3000"
	StaticDir       string        `koanf:"static_dir"` // default "public"
	PostCacheTTL    time.Duration `koanf:"post_cache_ttl"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"` // default "data/folio.db"
	Seed bool   `koanf:"seed"` // load the sample posts and projects into an empty database
}

type AdminConfig struct {
	Password      string `koanf:"password"`       // required to serve
	SessionSecret string `koanf:"session_secret"` // required to serve
	CookieSecure  bool   `koanf:"cookie_secure"`
}

type LocaleConfig struct {
	Default string `koanf:"default"` // fallback when Accept-Language has no match
}

// ContactConfig selects how contact form submissions are delivered.
type ContactConfig struct {
	Sender        string        `koanf:"sender"` // simulated or smtp
	SendDelay     time.Duration `koanf:"send_delay"`
	ResetAfter    time.Duration `koanf:"reset_after"`
	RatePerMinute float64       `koanf:"rate_per_minute"`
	Burst         int           `koanf:"burst"`

	SMTPAddr     string `koanf:"smtp_addr"`
	SMTPUsername string `koanf:"smtp_username"`
	SMTPPassword string `koanf:"smtp_password"`
	SMTPFrom     string `koanf:"smtp_from"`
	SMTPTo       string `koanf:"smtp_to"`
}

// TaskFlowConfig selects the board's event broker.
type TaskFlowConfig struct {
	Broker  string `koanf:"broker"` // memory or nats
	NATSURL string `koanf:"nats_url"`
	Subject string `koanf:"subject"`
}

var configSections = map[string]bool{
	"site": true, "server": true, "database": true, "admin": true,
	"locale": true, "contact": true, "taskflow": true, "log": true,
}

// envKey maps SECTION_FIELD_NAME to section.field_name. Variables outside the
// known sections are ignored.
func envKey(s string) string {
	lower := strings.ToLower(s)
	section, field, ok := strings.Cut(lower, "_")
	if !ok || !configSections[section] {
		return ""
	}
	return section + "." + field
}

// LoadConfig reads the optional YAML file at path, overlays environment
// variables (SITE_URL -> site.url, ADMIN_PASSWORD -> admin.password, ...),
// applies defaults and validates the result.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		info, err := os.Stat(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return Config{}, fmt.Errorf("config: %s is larger than %d bytes", path, maxConfigFileSize)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Site.Name == "" {
		c.Site.Name = "Folio"
	}
	if c.Site.URL == "" {
		c.Site.URL = "http://localhost:3000"
	}
	c.Site.URL = strings.TrimRight(c.Site.URL, "/")
	if c.Site.Author == "" {
		c.Site.Author = "Alex Pham"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":3000"
	}
	if c.Server.StaticDir == "" {
		c.Server.StaticDir = "public"
	}
	if c.Server.PostCacheTTL == 0 {
		c.Server.PostCacheTTL = 5 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/folio.db"
	}
	if c.Locale.Default == "" {
		c.Locale.Default = string(i18n.Default)
	}
	if c.Contact.Sender == "" {
		c.Contact.Sender = "simulated"
	}
	if c.Contact.SendDelay == 0 {
		c.Contact.SendDelay = contact.DefaultSendDelay
	}
	if c.Contact.ResetAfter == 0 {
		c.Contact.ResetAfter = contact.DefaultResetAfter
	}
	if c.Contact.RatePerMinute == 0 {
		c.Contact.RatePerMinute = 3
	}
	if c.Contact.Burst == 0 {
		c.Contact.Burst = 3
	}
	if c.TaskFlow.Broker == "" {
		c.TaskFlow.Broker = "memory"
	}
	if c.TaskFlow.Subject == "" {
		c.TaskFlow.Subject = taskflow.DefaultSubject
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.File != "" && c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 100
		c.Log.MaxBackups = 3
		c.Log.MaxAgeDays = 7
	}
}

// Validate reports every problem in c at once.
func (c Config) Validate() error {
	var errs []error
	if u, err := url.Parse(c.Site.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("site.url: must be an absolute URL, got %q", c.Site.URL))
	}
	if _, ok := i18n.Parse(c.Locale.Default); !ok {
		errs = append(errs, fmt.Errorf("locale.default: unsupported locale %q", c.Locale.Default))
	}
	if c.Server.PostCacheTTL < 0 || c.Server.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("server: durations must not be negative"))
	}
	switch c.Contact.Sender {
	case "simulated":
	case "smtp":
		if c.Contact.SMTPAddr == "" || c.Contact.SMTPFrom == "" || c.Contact.SMTPTo == "" {
			errs = append(errs, errors.New("contact: smtp sender needs smtp_addr, smtp_from and smtp_to"))
		}
	default:
		errs = append(errs, fmt.Errorf("contact.sender: must be simulated or smtp, got %q", c.Contact.Sender))
	}
	if c.Contact.RatePerMinute < 0 || c.Contact.Burst < 0 {
		errs = append(errs, errors.New("contact: rate_per_minute and burst must not be negative"))
	}
	switch c.TaskFlow.Broker {
	case "memory":
	case "nats":
		if c.TaskFlow.NATSURL == "" {
			errs = append(errs, errors.New("taskflow.nats_url: required for the nats broker"))
		}
	default:
		errs = append(errs, fmt.Errorf("taskflow.broker: must be memory or nats, got %q", c.TaskFlow.Broker))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.Config.Server.StaticDir = dir
	}
}

// WithLogger replaces the logger built from Config.Log.
func WithLogger(l *zap.Logger) Option {
	return func(a *App) {
		a.Logger = l
	}
}

// WithViews replaces the page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}

// WithBroker replaces the TaskFlow broker selected by Config.TaskFlow.
func WithBroker(b taskflow.Broker) Option {
	return func(a *App) {
		a.broker = b
	}
}

// WithContactSender replaces the delivery step of the contact form. Messages
// are still recorded in the store first.
func WithContactSender(s contact.Sender) Option {
	return func(a *App) {
		a.sender = s
	}
}
