package config

import "fmt"

// Feed retrieval modes.
const (
	FeedModePreference = "preference"
	FeedModeRandom     = "random"
	FeedModeXAlgo      = "x_algo"
)

// RAGConfig configures feed retrieval.
type RAGConfig struct {
	// FeedSize is the number of posts per feed, 1 to 20.
	FeedSize int `yaml:"feed_size,omitempty" json:"feed_size,omitempty" jsonschema:"title=Feed Size,description=Posts returned per feed,minimum=1,maximum=20,default=5"`

	// Mode is the default retrieval mode.
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty" jsonschema:"title=Mode,description=Default retrieval mode,enum=preference,enum=random,default=preference"`

	// Ranking configures the optional reranking layer.
	Ranking RankingConfig `yaml:"ranking,omitempty" json:"ranking,omitempty" jsonschema:"title=Ranking,description=Feed ranking configuration"`
}

// RankingConfig configures the X-algorithm style reranker. The scale and
// diversity fields are pointers so an explicit zero survives default
// application.
type RankingConfig struct {
	// Mode selects the ranking pipeline.
	Mode string `yaml:"mode,omitempty" json:"mode,omitempty" jsonschema:"title=Ranking Mode,description=Ranking pipeline,enum=preference,enum=random,enum=x_algo,default=preference"`

	// OutOfNetworkScale multiplies scores of posts from unfollowed authors.
	OutOfNetworkScale *float64 `yaml:"out_of_network_scale,omitempty" json:"out_of_network_scale,omitempty" jsonschema:"title=Out-of-network Scale,description=Score multiplier for out-of-network posts,minimum=0,maximum=1,default=0.75"`

	// ReplyScale multiplies scores of reply posts.
	ReplyScale *float64 `yaml:"reply_scale,omitempty" json:"reply_scale,omitempty" jsonschema:"title=Reply Scale,description=Score multiplier for reply posts,minimum=0,maximum=1,default=0.75"`

	// AuthorDiversityDecay decays repeated authors: the n-th repeat is
	// multiplied by decay^n.
	AuthorDiversityDecay *float64 `yaml:"author_diversity_decay,omitempty" json:"author_diversity_decay,omitempty" jsonschema:"title=Author Diversity Decay,description=Per-repeat author score decay,minimum=0,maximum=1,default=0.5"`

	// AuthorDiversityFloor bounds the decay from below. Must not exceed the
	// decay.
	AuthorDiversityFloor *float64 `yaml:"author_diversity_floor,omitempty" json:"author_diversity_floor,omitempty" jsonschema:"title=Author Diversity Floor,description=Lower bound for the diversity multiplier,minimum=0,maximum=1,default=0.25"`

	// InNetworkLimit caps in-network candidates before scoring.
	InNetworkLimit int `yaml:"in_network_limit,omitempty" json:"in_network_limit,omitempty" jsonschema:"title=In-network Limit,description=Max in-network candidates,minimum=1,default=50"`

	// OutOfNetworkLimit caps out-of-network candidates before scoring.
	OutOfNetworkLimit int `yaml:"out_of_network_limit,omitempty" json:"out_of_network_limit,omitempty" jsonschema:"title=Out-of-network Limit,description=Max out-of-network candidates,minimum=1,default=50"`
}

// SetDefaults applies default values.
func (c *RAGConfig) SetDefaults() {
	if c.FeedSize == 0 {
		c.FeedSize = 5
	}
	if c.Mode == "" {
		c.Mode = FeedModePreference
	}
	c.Ranking.SetDefaults()
}

// Validate checks the RAG configuration.
func (c *RAGConfig) Validate() error {
	if c.FeedSize < 1 || c.FeedSize > 20 {
		return fmt.Errorf("feed_size must be between 1 and 20, got %d", c.FeedSize)
	}
	if c.Mode != FeedModePreference && c.Mode != FeedModeRandom {
		return fmt.Errorf("invalid mode %q (valid: preference, random)", c.Mode)
	}
	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking: %w", err)
	}
	return nil
}

// SetDefaults applies default values.
func (c *RankingConfig) SetDefaults() {
	if c.Mode == "" {
		c.Mode = FeedModePreference
	}
	if c.OutOfNetworkScale == nil {
		c.OutOfNetworkScale = Float64Ptr(0.75)
	}
	if c.ReplyScale == nil {
		c.ReplyScale = Float64Ptr(0.75)
	}
	if c.AuthorDiversityDecay == nil {
		c.AuthorDiversityDecay = Float64Ptr(0.5)
	}
	if c.AuthorDiversityFloor == nil {
		c.AuthorDiversityFloor = Float64Ptr(0.25)
	}
	if c.InNetworkLimit == 0 {
		c.InNetworkLimit = 50
	}
	if c.OutOfNetworkLimit == 0 {
		c.OutOfNetworkLimit = 50
	}
}

// Validate checks the ranking configuration, including the floor <= decay
// constraint.
func (c *RankingConfig) Validate() error {
	switch c.Mode {
	case FeedModePreference, FeedModeRandom, FeedModeXAlgo:
	default:
		return fmt.Errorf("invalid mode %q (valid: preference, random, x_algo)", c.Mode)
	}

	unit := func(name string, v *float64) error {
		if v != nil && (*v < 0 || *v > 1) {
			return fmt.Errorf("%s must be between 0 and 1, got %v", name, *v)
		}
		return nil
	}
	if err := unit("out_of_network_scale", c.OutOfNetworkScale); err != nil {
		return err
	}
	if err := unit("reply_scale", c.ReplyScale); err != nil {
		return err
	}
	if err := unit("author_diversity_decay", c.AuthorDiversityDecay); err != nil {
		return err
	}
	if err := unit("author_diversity_floor", c.AuthorDiversityFloor); err != nil {
		return err
	}

	if c.AuthorDiversityDecay != nil && c.AuthorDiversityFloor != nil &&
		*c.AuthorDiversityFloor > *c.AuthorDiversityDecay {
		return fmt.Errorf("author_diversity_floor (%v) must not exceed author_diversity_decay (%v)",
			*c.AuthorDiversityFloor, *c.AuthorDiversityDecay)
	}

	if c.InNetworkLimit < 1 {
		return fmt.Errorf("in_network_limit must be >= 1, got %d", c.InNetworkLimit)
	}
	if c.OutOfNetworkLimit < 1 {
		return fmt.Errorf("out_of_network_limit must be >= 1, got %d", c.OutOfNetworkLimit)
	}
	return nil
}
