package extraction

import (
	"errors"
	"net/url"
	"time"
)

const (
	// DefaultStartURL is the listing page crawled by default.
	DefaultStartURL = "https://www.vorys.com/professionals-leadership"
	// DefaultAllowedDomain is the only domain the collector may visit by default.
	DefaultAllowedDomain = "www.vorys.com"
	// DefaultUserAgent identifies the crawler.
	DefaultUserAgent = "roster/1.0 (+https://github.com/jonesrussell/roster)"
	// DefaultRequestTimeout bounds the single page fetch.
	DefaultRequestTimeout = 30 * time.Second
)

// Default selector scheme for the listing page.
const (
	DefaultMemberSelector   = "ul.results_list li"
	DefaultNameSelector     = "div.title a"
	DefaultPositionSelector = "div.position"
	DefaultLocationSelector = "div.office a"
	DefaultEmailSelector    = "div.email a"
)

// Selectors locate the member blocks and their fields. Field selectors are relative to a member.
type Selectors struct {
	Member   string `yaml:"member"`
	Name     string `yaml:"name"`
	Position string `yaml:"position"`
	Location string `yaml:"location"`
	Email    string `yaml:"email"`
}

// Config holds extraction settings.
type Config struct {
	StartURL         string        `env:"CRAWLER_START_URL"       yaml:"start_url"`
	AllowedDomains   []string      `yaml:"allowed_domains"`
	UserAgent        string        `env:"CRAWLER_USER_AGENT"      yaml:"user_agent"`
	RequestTimeout   time.Duration `env:"CRAWLER_REQUEST_TIMEOUT" yaml:"request_timeout"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	Selectors        Selectors     `yaml:"selectors"`
}

// SetDefaults fills unset fields with the defaults.
func (c *Config) SetDefaults() {
	if c.StartURL == "" {
		c.StartURL = DefaultStartURL
	}
	if len(c.AllowedDomains) == 0 {
		c.AllowedDomains = []string{DefaultAllowedDomain, "vorys.com"}
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	setDefault(&c.Selectors.Member, DefaultMemberSelector)
	setDefault(&c.Selectors.Name, DefaultNameSelector)
	setDefault(&c.Selectors.Position, DefaultPositionSelector)
	setDefault(&c.Selectors.Location, DefaultLocationSelector)
	setDefault(&c.Selectors.Email, DefaultEmailSelector)
}

// Validate checks that the start URL is absolute.
func (c *Config) Validate() error {
	u, err := url.Parse(c.StartURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("start_url must be an http or https URL")
	}
	if u.Host == "" {
		return errors.New("start_url must include a host")
	}
	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
