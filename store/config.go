package store

const (
	defaultRelationshipTable = "submissions_relationships"
	defaultUniqueTable       = "submissions_unique_constraints"
	maxShards                = 256
)

// Config holds configuration for the Store.
type Config struct {
	// RelationshipTable records parent -> child links used by cascade deletes.
	// Default: "submissions_relationships"
	RelationshipTable string

	// UniqueTable holds one item per unique field value.
	// Default: "submissions_unique_constraints"
	UniqueTable string

	// NumShards is the number of partitions a parent's relationship records
	// are spread over. A submission rarely has more than a few dozen reviews,
	// so 1 is enough unless reviews are bulk loaded.
	// Default: 1, max: 256
	NumShards int
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		RelationshipTable: defaultRelationshipTable,
		UniqueTable:       defaultUniqueTable,
		NumShards:         1,
	}
}

// validate fills defaults and clamps NumShards into range.
func (c *Config) validate() {
	if c.RelationshipTable == "" {
		c.RelationshipTable = defaultRelationshipTable
	}
	if c.UniqueTable == "" {
		c.UniqueTable = defaultUniqueTable
	}
	if c.NumShards < 1 {
		c.NumShards = 1
	}
	if c.NumShards > maxShards {
		c.NumShards = maxShards
	}
}
