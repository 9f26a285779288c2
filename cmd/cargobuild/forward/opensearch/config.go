package opensearch

import (
	"fmt"
	"net/url"
	"strings"
)

// Config points the forwarder at one index of an OpenSearch cluster.
type Config struct {
	URL      string `mapstructure:"url"`
	Index    string `mapstructure:"index"` // lowercase, as OpenSearch requires
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

func (c Config) Validate() error {
	if c.URL == "" || c.Index == "" {
		return fmt.Errorf("forward.opensearch requires url and index")
	}
	u, err := url.Parse(c.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("forward.opensearch.url must be an http(s) URL, got %q", c.URL)
	}
	if c.Index != strings.ToLower(c.Index) || strings.ContainsAny(c.Index, ` "*\<|,>/?`) {
		return fmt.Errorf("forward.opensearch.index %q is not a valid index name", c.Index)
	}
	if c.Password != "" && c.User == "" {
		return fmt.Errorf("forward.opensearch.password is set without a user")
	}
	return nil
}
