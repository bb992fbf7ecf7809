package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Show       ShowConfig       `mapstructure:"show"`
	Search     SearchConfig     `mapstructure:"search"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Selection  SelectionConfig  `mapstructure:"selection"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Server     ServerConfig     `mapstructure:"server"`
	Output     OutputConfig     `mapstructure:"output"`
}

// ShowConfig identifies the tracked show
type ShowConfig struct {
	Name string `mapstructure:"name"`
	Slug string `mapstructure:"slug"`
}

// SearchConfig holds Reddit search settings
type SearchConfig struct {
	Subreddits   []string `mapstructure:"subreddits"`
	QueryTerms   []string `mapstructure:"query_terms"`
	Limit        int      `mapstructure:"limit"`
	Sort         string   `mapstructure:"sort"`
	TimeFilter   string   `mapstructure:"time_filter"`
	UserAgent    string   `mapstructure:"user_agent"`
	PollInterval string   `mapstructure:"poll_interval"`
	BaseURL      string   `mapstructure:"base_url"`
}

// ClassifierConfig holds the category tunables. Patterns and keywords
// live here rather than in code so they can change without a rebuild.
type ClassifierConfig struct {
	TrailerKeywords       []string `mapstructure:"trailer_keywords"`
	SeasonEpisodePatterns []string `mapstructure:"season_episode_patterns"`
	EpisodeOnlyPatterns   []string `mapstructure:"episode_only_patterns"`
	CommentThreshold      int      `mapstructure:"comment_threshold"`
	ScoreThreshold        int      `mapstructure:"score_threshold"`
}

// SelectionConfig holds derived-view settings
type SelectionConfig struct {
	OtherPostsN int `mapstructure:"other_posts_n"`
}

// StorageConfig holds storage-related configuration
type StorageConfig struct {
	Type string `mapstructure:"type"`
	Path string `mapstructure:"path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Host string `mapstructure:"host"`
}

// OutputConfig holds exporter settings
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("show.name", "Starfleet Academy")
	viper.SetDefault("show.slug", "starfleet_academy")
	viper.SetDefault("search.subreddits", []string{"television"})
	viper.SetDefault("search.query_terms", []string{"Starfleet Academy"})
	viper.SetDefault("search.limit", 100)
	viper.SetDefault("search.sort", "new")
	viper.SetDefault("search.time_filter", "all")
	viper.SetDefault("search.user_agent", "RewindOS-SubTracker/1.0 (personal project; respectful polling)")
	viper.SetDefault("search.poll_interval", "6h")
	viper.SetDefault("search.base_url", "https://www.reddit.com")
	viper.SetDefault("classifier.trailer_keywords", []string{
		"official trailer", "teaser trailer", "trailer", "teaser", "first look",
	})
	viper.SetDefault("classifier.season_episode_patterns", []string{
		`\b(\d{1,2})\s*[xX]\s*(\d{1,2})\b`,
		`\b[Ss](\d{1,2})\s*[Ee](\d{1,2})\b`,
	})
	viper.SetDefault("classifier.episode_only_patterns", []string{
		`(?i)\b(?:episode|ep)\.?\s*(\d{1,2})\b`,
	})
	viper.SetDefault("classifier.comment_threshold", 300)
	viper.SetDefault("classifier.score_threshold", 1500)
	viper.SetDefault("selection.other_posts_n", 5)
	viper.SetDefault("storage.type", "sqlite")
	viper.SetDefault("storage.path", "./data/history.db")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("output.dir", "./out")

	// Environment variable bindings
	viper.AutomaticEnv()
	viper.BindEnv("show.slug", "SHOW_SLUG")
	viper.BindEnv("show.name", "SHOW_NAME")
	viper.BindEnv("search.subreddits", "SUBREDDITS")
	viper.BindEnv("search.query_terms", "QUERY_TERMS")
	viper.BindEnv("search.limit", "LIMIT")
	viper.BindEnv("search.sort", "SORT")
	viper.BindEnv("search.time_filter", "T")
	viper.BindEnv("search.user_agent", "USER_AGENT")

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		log.Println("No config file found, using defaults and environment variables")
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
