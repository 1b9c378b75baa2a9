package config

import "fmt"

// SeedsConfig configures where the initial population comes from. Posts and
// agents can be seeded from JSON files, a SQL database, or both (files win
// on id collisions).
type SeedsConfig struct {
	// PostsFile is a JSON file holding an array of posts.
	PostsFile string `yaml:"posts_file,omitempty" json:"posts_file,omitempty" jsonschema:"title=Posts File,description=JSON seed file with initial posts"`

	// AgentsFile is a JSON file holding an array of agent profiles.
	AgentsFile string `yaml:"agents_file,omitempty" json:"agents_file,omitempty" jsonschema:"title=Agents File,description=JSON seed file with agent profiles"`

	// Database seeds posts/agents from SQL instead of (or in addition to)
	// files.
	Database *DatabaseConfig `yaml:"database,omitempty" json:"database,omitempty" jsonschema:"title=Database,description=SQL seed source"`

	// MaxConcurrent bounds the workers used for bulk post indexing.
	MaxConcurrent int `yaml:"max_concurrent,omitempty" json:"max_concurrent,omitempty" jsonschema:"title=Max Concurrent,description=Bulk indexing workers,minimum=1,default=4"`
}

// DatabaseConfig holds a SQL seed source. Supports PostgreSQL, MySQL, and
// SQLite.
type DatabaseConfig struct {
	// Driver is the database driver: "postgres", "mysql", "sqlite", or
	// "sqlite3".
	Driver string `yaml:"driver" json:"driver" jsonschema:"title=Driver,description=Database driver,enum=postgres,enum=mysql,enum=sqlite,enum=sqlite3"`

	// DSN is the driver-specific connection string (a file path for
	// SQLite). Supports ${VAR} expansion.
	DSN string `yaml:"dsn" json:"dsn" jsonschema:"title=DSN,description=Connection string (file path for SQLite)"`

	// PostsQuery selects seed posts. See pkg/seeds for the expected
	// columns.
	PostsQuery string `yaml:"posts_query,omitempty" json:"posts_query,omitempty" jsonschema:"title=Posts Query,description=SELECT returning seed post rows"`

	// AgentsQuery selects seed agent profiles.
	AgentsQuery string `yaml:"agents_query,omitempty" json:"agents_query,omitempty" jsonschema:"title=Agents Query,description=SELECT returning seed agent rows"`
}

// SetDefaults applies default values.
func (c *SeedsConfig) SetDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 4
	}
}

// Validate checks the seed configuration.
func (c *SeedsConfig) Validate() error {
	if c.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1, got %d", c.MaxConcurrent)
	}
	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}
	return nil
}

// Validate checks the database seed source.
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres", "mysql", "sqlite", "sqlite3":
	case "":
		return fmt.Errorf("driver is required")
	default:
		return fmt.Errorf("invalid driver %q (valid: postgres, mysql, sqlite)", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	if c.PostsQuery == "" && c.AgentsQuery == "" {
		return fmt.Errorf("at least one of posts_query or agents_query is required")
	}
	return nil
}

// DriverName returns the normalized driver name for sql.Open().
// Converts "sqlite" to "sqlite3" for the go-sqlite3 driver.
func (c *DatabaseConfig) DriverName() string {
	if c.Driver == "sqlite" {
		return "sqlite3"
	}
	return c.Driver
}
