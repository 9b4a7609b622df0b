package config

// Config 配置主体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Autopilot AutopilotConfig `mapstructure:"autopilot"`
	Twitter   TwitterConfig   `mapstructure:"twitter"`
	Reddit    RedditConfig    `mapstructure:"reddit"`
	LinkedIn  LinkedInConfig  `mapstructure:"linkedin"`
	SerpAPI   SerpAPIConfig   `mapstructure:"serpapi"`
	Apify     ApifyConfig     `mapstructure:"apify"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	MinIO     MinIOConfig     `mapstructure:"minio"`
	Elastic   ElasticConfig   `mapstructure:"elastic"`
	Email     EmailConfig     `mapstructure:"email"`
	Security  SecurityConfig  `mapstructure:"security"`
	Logstash  LogstashConfig  `mapstructure:"logstash"`
	LogFile   LogFileConfig   `mapstructure:"log_file"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	PublicURL      string   `mapstructure:"public_url"`
	CronSecret     string   `mapstructure:"cron_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type LLMConfig struct {
	URL         string           `mapstructure:"url"`
	TextModel   string           `mapstructure:"text_model"`
	ApiKey      string           `mapstructure:"api_key"`
	MaxParallel int64            `mapstructure:"max_parallel"`
	MinScore    int              `mapstructure:"min_score"`
	PromptsPath PromptPathConfig `mapstructure:"prompts_path"`
}

type PromptPathConfig struct {
	PostFilter      string `mapstructure:"post_filter"`
	CommentGenerate string `mapstructure:"comment_generate"`
}

// AutopilotConfig 自动驾驶流水线配置
type AutopilotConfig struct {
	BatchSize          int               `mapstructure:"batch_size"`
	MaxPostsPerKeyword int               `mapstructure:"max_posts_per_keyword"`
	DailyReplyLimit    int               `mapstructure:"daily_reply_limit"`
	FetchCron          string            `mapstructure:"fetch_cron"`
	PostCron           string            `mapstructure:"post_cron"`
	LockSeconds        int               `mapstructure:"lock_seconds"`
	SeenTTLHours       int               `mapstructure:"seen_ttl_hours"`
	RateLimits         map[string]int    `mapstructure:"rate_limits"`
	RateWindowSeconds  int               `mapstructure:"rate_window_seconds"`
	SearchProviders    map[string]string `mapstructure:"search_providers"`
}

// HTTPClientConfig 第三方接口通用的 HTTP 配置
type HTTPClientConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	RetryCount     int `mapstructure:"retry_count"`
	RetryWaitMs    int `mapstructure:"retry_wait_ms"`
	RetryMaxWaitMs int `mapstructure:"retry_max_wait_ms"`
}

type TwitterConfig struct {
	ClientID     string           `mapstructure:"client_id"`
	ClientSecret string           `mapstructure:"client_secret"`
	BearerToken  string           `mapstructure:"bearer_token"`
	APIBase      string           `mapstructure:"api_base"`
	AuthURL      string           `mapstructure:"auth_url"`
	TokenURL     string           `mapstructure:"token_url"`
	HTTP         HTTPClientConfig `mapstructure:"http"`
}

type RedditConfig struct {
	ClientID     string           `mapstructure:"client_id"`
	ClientSecret string           `mapstructure:"client_secret"`
	UserAgent    string           `mapstructure:"user_agent"`
	SearchBase   string           `mapstructure:"search_base"`
	OAuthBase    string           `mapstructure:"oauth_base"`
	AuthURL      string           `mapstructure:"auth_url"`
	TokenURL     string           `mapstructure:"token_url"`
	HTTP         HTTPClientConfig `mapstructure:"http"`
}

type LinkedInConfig struct {
	ClientID     string           `mapstructure:"client_id"`
	ClientSecret string           `mapstructure:"client_secret"`
	APIBase      string           `mapstructure:"api_base"`
	AuthURL      string           `mapstructure:"auth_url"`
	TokenURL     string           `mapstructure:"token_url"`
	HTTP         HTTPClientConfig `mapstructure:"http"`
}

type SerpAPIConfig struct {
	ApiKey  string           `mapstructure:"api_key"`
	BaseURL string           `mapstructure:"base_url"`
	HTTP    HTTPClientConfig `mapstructure:"http"`
}

type ApifyConfig struct {
	Token   string            `mapstructure:"token"`
	BaseURL string            `mapstructure:"base_url"`
	Actors  map[string]string `mapstructure:"actors"`
	HTTP    HTTPClientConfig  `mapstructure:"http"`
}

// ScraperConfig 帖子正文补全配置
type ScraperConfig struct {
	UserAgent      string `mapstructure:"user_agent"`
	Proxy          string `mapstructure:"proxy"`
	EnableBrowser  bool   `mapstructure:"enable_browser"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type KafkaConfig struct {
	Enable   bool           `mapstructure:"enable"`
	Brokers  []string       `mapstructure:"brokers"`
	Sasl     SaslConfig     `mapstructure:"sasl"`
	Consumer ConsumerConfig `mapstructure:"consumer"`
	Topic    string         `mapstructure:"topic"`
	GroupID  string         `mapstructure:"group_id"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type ConsumerConfig struct {
	SessionTimeout    int `mapstructure:"session_timeout"`
	HeartbeatInterval int `mapstructure:"heartbeat_interval"`
	RebalanceTimeout  int `mapstructure:"rebalance_timeout"`
	MaxProcessingTime int `mapstructure:"max_processing_time"`
}

type MongoConfig struct {
	URL      string `mapstructure:"url"`
	Database string `mapstructure:"database"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	ArchiveBucket string `mapstructure:"archive_bucket"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// ElasticConfig Elastic配置
type ElasticConfig struct {
	Address   string `mapstructure:"address"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	PostIndex string `mapstructure:"post_index"`
}

type EmailConfig struct {
	Enable    bool   `mapstructure:"enable"`
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type SecurityConfig struct {
	JWTSecret   string `mapstructure:"jwt_secret"`
	TokenKey    string `mapstructure:"token_key"`
	StateTTLMin int    `mapstructure:"state_ttl_min"`
}

type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// LogFileConfig 本地滚动日志
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}
