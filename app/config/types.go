package config

// Client is the YAML configuration for one monitored entity. The slug is
// derived from the file name (without the .yml extension) and doubles as
// the entity identifier everywhere in the system.
type Client struct {
	Slug     string         // derived from filename
	Name     string         `yaml:"name"`
	Aliases  []string       `yaml:"aliases"`
	Settings ClientSettings `yaml:"settings"`
}

type ClientSettings struct {
	Enabled bool     `yaml:"enabled"`
	Queries []string `yaml:"queries"` // defaults to the client name
}

// SearchQueries returns the queries to run for this client: the configured
// list, or just the client name when none are configured.
func (c *Client) SearchQueries() []string {
	if len(c.Settings.Queries) > 0 {
		return c.Settings.Queries
	}
	return []string{c.Name}
}
