package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Neo4j          Neo4jConfig          `mapstructure:"neo4j"`
	Kafka          KafkaConfig          `mapstructure:"kafka"`
	Auth           AuthConfig           `mapstructure:"auth"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	Recommendation RecommendationConfig `mapstructure:"recommendation"`
	Monitoring     MonitoringConfig     `mapstructure:"monitoring"`
	Security       SecurityConfig       `mapstructure:"security"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MaxIdleTime    time.Duration `mapstructure:"max_idle_time"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	URL        string        `mapstructure:"url"`
	MaxRetries int           `mapstructure:"max_retries"`
	PoolSize   int           `mapstructure:"pool_size"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type Neo4jConfig struct {
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type KafkaConfig struct {
	Brokers []string `mapstructure:"brokers"`
	Topics  struct {
		FeedbackEvents string `mapstructure:"feedback_events"`
	} `mapstructure:"topics"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RecommendationConfig groups the engine tunables. The defaults reproduce
// the documented scoring behavior; overriding them changes behavior without
// code changes.
type RecommendationConfig struct {
	Profile       ProfileConfig       `mapstructure:"profile"`
	Feedback      FeedbackConfig      `mapstructure:"feedback"`
	Collaborative CollaborativeConfig `mapstructure:"collaborative"`
	Bandit        BanditConfig        `mapstructure:"bandit"`
	Ranking       RankingConfig       `mapstructure:"ranking"`
	Notification  NotificationConfig  `mapstructure:"notification"`
}

type ProfileConfig struct {
	InitialConfidence float64               `mapstructure:"initial_confidence"`
	FeedbackDeltas    map[string]float64    `mapstructure:"feedback_deltas"`
	AdaptationRates   AdaptationRatesConfig `mapstructure:"adaptation_rates"`
}

type AdaptationRatesConfig struct {
	Category float64 `mapstructure:"category"`
	Activity float64 `mapstructure:"activity"`
	Persona  float64 `mapstructure:"persona"`
}

type FeedbackConfig struct {
	BatchSize    int `mapstructure:"batch_size"`
	BufferShards int `mapstructure:"buffer_shards"`
}

type CollaborativeConfig struct {
	MinInteractions     int           `mapstructure:"min_interactions"`
	MinCommonItems      int           `mapstructure:"min_common_items"`
	SimilarityThreshold float64       `mapstructure:"similarity_threshold"`
	MaxNeighbors        int           `mapstructure:"max_neighbors"`
	MaxUserCandidates   int           `mapstructure:"max_user_candidates"`
	MaxItemCandidates   int           `mapstructure:"max_item_candidates"`
	MinCoOccurrence     int           `mapstructure:"min_co_occurrence"`
	SeedRatingFloor     float64       `mapstructure:"seed_rating_floor"`
	UserWeight          float64       `mapstructure:"user_weight"`
	ItemWeight          float64       `mapstructure:"item_weight"`
	Lookback            time.Duration `mapstructure:"lookback"`
	UserSimilarityTTL   time.Duration `mapstructure:"user_similarity_ttl"`
	ItemSimilarityTTL   time.Duration `mapstructure:"item_similarity_ttl"`
	RefreshInterval     time.Duration `mapstructure:"refresh_interval"`
}

type BanditConfig struct {
	Window            time.Duration `mapstructure:"window"`
	MinInteractions   int           `mapstructure:"min_interactions"`
	ExplorationCredit float64       `mapstructure:"exploration_credit"`
}

type RankingConfig struct {
	CompatibilityWeight float64          `mapstructure:"compatibility_weight"`
	ContextWeight       float64          `mapstructure:"context_weight"`
	TieBreakEpsilon     float64          `mapstructure:"tie_break_epsilon"`
	SignalTimeout       time.Duration    `mapstructure:"signal_timeout"`
	Fusion              FusionConfig     `mapstructure:"fusion"`
	HiddenGems          HiddenGemsConfig `mapstructure:"hidden_gems"`
}

type FusionConfig struct {
	Compatibility float64 `mapstructure:"compatibility"`
	Collaborative float64 `mapstructure:"collaborative"`
	Bandit        float64 `mapstructure:"bandit"`
	Context       float64 `mapstructure:"context"`
	Quality       float64 `mapstructure:"quality"`
}

type HiddenGemsConfig struct {
	MaxReviewCount int     `mapstructure:"max_review_count"`
	MinRating      float64 `mapstructure:"min_rating"`
	MaxPopularity  float64 `mapstructure:"max_popularity"`
}

type NotificationConfig struct {
	RelevanceThreshold float64 `mapstructure:"relevance_threshold"`
}

type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

type SecurityConfig struct {
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

func Load() (*Config, error) {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, continue with env vars and defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	// Server defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "development")

	// Database defaults
	viper.SetDefault("database.max_connections", 25)
	viper.SetDefault("database.max_idle_time", "15m")
	viper.SetDefault("database.max_lifetime", "1h")
	viper.SetDefault("database.connect_timeout", "10s")

	// Redis defaults
	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.timeout", "5s")

	// Kafka defaults
	viper.SetDefault("kafka.topics.feedback_events", "feedback-events")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	// Profile defaults
	viper.SetDefault("recommendation.profile.initial_confidence", 0.7)
	viper.SetDefault("recommendation.profile.feedback_deltas", map[string]float64{
		"like":           0.10,
		"save":           0.15,
		"visit":          0.20,
		"share":          0.10,
		"skip":           -0.05,
		"dislike":        -0.10,
		"not_interested": -0.15,
	})
	viper.SetDefault("recommendation.profile.adaptation_rates.category", 0.02)
	viper.SetDefault("recommendation.profile.adaptation_rates.activity", 0.01)
	viper.SetDefault("recommendation.profile.adaptation_rates.persona", 0.01)

	// Feedback recorder defaults
	viper.SetDefault("recommendation.feedback.batch_size", 10)
	viper.SetDefault("recommendation.feedback.buffer_shards", 16)

	// Collaborative filtering defaults
	viper.SetDefault("recommendation.collaborative.min_interactions", 5)
	viper.SetDefault("recommendation.collaborative.min_common_items", 3)
	viper.SetDefault("recommendation.collaborative.similarity_threshold", 0.1)
	viper.SetDefault("recommendation.collaborative.max_neighbors", 50)
	viper.SetDefault("recommendation.collaborative.max_user_candidates", 50)
	viper.SetDefault("recommendation.collaborative.max_item_candidates", 30)
	viper.SetDefault("recommendation.collaborative.min_co_occurrence", 3)
	viper.SetDefault("recommendation.collaborative.seed_rating_floor", 4.0)
	viper.SetDefault("recommendation.collaborative.user_weight", 0.7)
	viper.SetDefault("recommendation.collaborative.item_weight", 0.3)
	viper.SetDefault("recommendation.collaborative.lookback", "4320h") // ~6 months
	viper.SetDefault("recommendation.collaborative.user_similarity_ttl", "2h")
	viper.SetDefault("recommendation.collaborative.item_similarity_ttl", "4h")
	viper.SetDefault("recommendation.collaborative.refresh_interval", "1h")

	// Bandit defaults
	viper.SetDefault("recommendation.bandit.window", "720h") // 30 days
	viper.SetDefault("recommendation.bandit.min_interactions", 3)
	viper.SetDefault("recommendation.bandit.exploration_credit", 0.15)

	// Ranking defaults
	viper.SetDefault("recommendation.ranking.compatibility_weight", 0.7)
	viper.SetDefault("recommendation.ranking.context_weight", 0.3)
	viper.SetDefault("recommendation.ranking.tie_break_epsilon", 0.1)
	viper.SetDefault("recommendation.ranking.signal_timeout", "400ms")
	viper.SetDefault("recommendation.ranking.fusion.compatibility", 0.35)
	viper.SetDefault("recommendation.ranking.fusion.collaborative", 0.25)
	viper.SetDefault("recommendation.ranking.fusion.bandit", 0.15)
	viper.SetDefault("recommendation.ranking.fusion.context", 0.15)
	viper.SetDefault("recommendation.ranking.fusion.quality", 0.10)
	viper.SetDefault("recommendation.ranking.hidden_gems.max_review_count", 50)
	viper.SetDefault("recommendation.ranking.hidden_gems.min_rating", 4.0)
	viper.SetDefault("recommendation.ranking.hidden_gems.max_popularity", 0.7)

	// Notification defaults
	viper.SetDefault("recommendation.notification.relevance_threshold", 0.6)

	// Monitoring defaults
	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	// Security defaults
	viper.SetDefault("security.cors.allowed_origins", []string{"*"})
	viper.SetDefault("security.cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("security.cors.allowed_headers", []string{"*"})
}
