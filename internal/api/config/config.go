package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 全局可访问的配置实例
var Cfg *Config

// LoadConfig 从文件加载配置并填充到 Cfg，环境变量 BUZZ_* 覆盖文件中的同名配置
func LoadConfig() error {
	// .env 不存在时忽略
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("BUZZ")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("config file not found: %w", err)
		}
		return fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	Cfg = &cfg

	return nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("llm.max_parallel", 5)
	viper.SetDefault("llm.min_score", 60)
	viper.SetDefault("llm.prompts_path.post_filter", "./prompts/post-filter.txt")
	viper.SetDefault("llm.prompts_path.comment_generate", "./prompts/comment-generate.txt")
	viper.SetDefault("autopilot.batch_size", 10)
	viper.SetDefault("autopilot.max_posts_per_keyword", 20)
	viper.SetDefault("autopilot.daily_reply_limit", 20)
	viper.SetDefault("autopilot.lock_seconds", 600)
	viper.SetDefault("autopilot.seen_ttl_hours", 72)
	viper.SetDefault("autopilot.rate_window_seconds", 900)
	viper.SetDefault("twitter.api_base", "https://api.twitter.com")
	viper.SetDefault("twitter.auth_url", "https://twitter.com/i/oauth2/authorize")
	viper.SetDefault("twitter.token_url", "https://api.twitter.com/2/oauth2/token")
	viper.SetDefault("reddit.search_base", "https://www.reddit.com")
	viper.SetDefault("reddit.oauth_base", "https://oauth.reddit.com")
	viper.SetDefault("reddit.auth_url", "https://www.reddit.com/api/v1/authorize")
	viper.SetDefault("reddit.token_url", "https://www.reddit.com/api/v1/access_token")
	viper.SetDefault("linkedin.api_base", "https://api.linkedin.com")
	viper.SetDefault("linkedin.auth_url", "https://www.linkedin.com/oauth/v2/authorization")
	viper.SetDefault("linkedin.token_url", "https://www.linkedin.com/oauth/v2/accessToken")
	viper.SetDefault("serpapi.base_url", "https://serpapi.com")
	viper.SetDefault("apify.base_url", "https://api.apify.com")
	viper.SetDefault("scraper.timeout_seconds", 20)
	viper.SetDefault("kafka.topic", "buzz-autopilot-tasks")
	viper.SetDefault("kafka.group_id", "buzz-autopilot")
	viper.SetDefault("elastic.post_index", "buzz-posts")
	viper.SetDefault("minio.archive_bucket", "buzz-raw")
	viper.SetDefault("minio.retention_days", 14)
	viper.SetDefault("security.state_ttl_min", 10)
}
