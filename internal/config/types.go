package config

// AppConfig holds runtime startup configuration loaded from YAML.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	DSN            string                `yaml:"dsn"` // MySQL DSN
	RedisURL       string                `yaml:"redis_url"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	Env            string                `yaml:"env"` // "development" | "production"
	Paths          RuntimePathsConfig    `yaml:"paths"`
	LogRotateSize  *int                  `yaml:"log_rotate_size_mb"`
	LogRotateKeep  *int                  `yaml:"log_rotate_keep"`
	AllowedOrigins []string              `yaml:"allowed_origins"`
	JWTSecret      string                `yaml:"jwt_secret"`
	Timezone       string                `yaml:"timezone"`
	Cluster        bool                  `yaml:"cluster"`
	ClusterWorkers int                   `yaml:"cluster_workers"`
}

type DatabaseRuntimeConfig struct {
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	URL      string            `yaml:"url"`
	Host     string            `yaml:"host"`
	Port     int               `yaml:"port"`
	Username string            `yaml:"username"`
	Password string            `yaml:"password"`
	DB       int               `yaml:"db"`
	TLS      bool              `yaml:"tls"`
	Scheme   string            `yaml:"scheme"`
	Params   map[string]string `yaml:"params"`
}

type RuntimePathsConfig struct {
	Logs    string `yaml:"logs"`
	Backups string `yaml:"backups"`
	Static  string `yaml:"static"`
}

// FullConfig is the application config stored in the database
// (options table, key="configs").
type FullConfig struct {
	Site         SiteConfig       `json:"site"`
	URL          URLConfig        `json:"url"`
	MailOptions  MailOptions      `json:"mail_options"`
	S3Options    S3Options        `json:"s3_options"`
	NewsAPI      NewsAPIOptions   `json:"news_api"`
	Inference    InferenceOptions `json:"inference"`
	AI           AIConfig         `json:"ai"`
	Payment      PaymentOptions   `json:"payment"`
	BackupPolicy BackupPolicy     `json:"backup_policy"`
	BarkOptions  BarkOptions      `json:"bark_options"`
	AuthSecurity AuthSecurity     `json:"auth_security"`
}

type SiteConfig struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type URLConfig struct {
	WebURL    string `json:"web_url"`
	ServerURL string `json:"server_url"`
	WSURL     string `json:"ws_url"`
}

type MailOptions struct {
	Enable   bool          `json:"enable"`
	Provider string        `json:"provider"`
	From     string        `json:"from"`
	SMTP     *SMTPConfig   `json:"smtp"`
	Resend   *ResendConfig `json:"resend"`
}

type SMTPOptions struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Secure bool   `json:"secure"`
}

type SMTPConfig struct {
	User    string      `json:"user"`
	Pass    string      `json:"pass"`
	Options SMTPOptions `json:"options"`
}

type ResendConfig struct {
	APIKey string `json:"api_key"`
}

type S3Options struct {
	Enable          bool   `json:"enable"`
	Endpoint        string `json:"endpoint"`
	Path            string `json:"path"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	CustomDomain    string `json:"custom_domain"`
	PathStyleAccess bool   `json:"path_style_access"`
}

// NewsAPIOptions configures the external news aggregation feed.
type NewsAPIOptions struct {
	Enable   bool   `json:"enable"`
	Endpoint string `json:"endpoint"`
	APIKey   string `json:"api_key"`
	Query    string `json:"query"`
	PageSize int    `json:"page_size"`
	CacheTTL int    `json:"cache_ttl"` // seconds
}

// InferenceOptions configures the waste classification endpoint.
type InferenceOptions struct {
	Enable         bool   `json:"enable"`
	Endpoint       string `json:"endpoint"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// PaymentOptions configures the hosted donation checkout.
type PaymentOptions struct {
	Enable    bool   `json:"enable"`
	KeyID     string `json:"key_id"`
	KeySecret string `json:"key_secret"`
	Currency  string `json:"currency"`
	Endpoint  string `json:"endpoint"`
}

type BackupPolicy struct {
	Enable bool   `json:"enable"`
	Path   string `json:"path"`
}

type BarkOptions struct {
	Enable              bool   `json:"enable"`
	Key                 string `json:"key"`
	ServerURL           string `json:"server_url"`
	EnableThrottleGuard bool   `json:"enable_throttle_guard"`
}

type AuthSecurity struct {
	DisablePasswordLogin bool `json:"disable_password_login"`
}

type AIConfig struct {
	Providers      []AIProvider       `json:"providers"`
	AssistantModel *AIModelAssignment `json:"assistant_model,omitempty"`
	EnableAssist   bool               `json:"enable_assist"`
	SystemPrompt   string             `json:"system_prompt,omitempty"`
}

type AIModelAssignment struct {
	ProviderID string `json:"provider_id"`
	Model      string `json:"model"`
}

type AIProvider struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"` // OpenAI | OpenAI-Compatible | Anthropic | OpenRouter | Gemini
	APIKey       string `json:"api_key"`
	Endpoint     string `json:"endpoint,omitempty"`
	DefaultModel string `json:"default_model"`
	Enabled      bool   `json:"enabled"`
}

// DefaultFullConfig returns the config seeded on first boot.
func DefaultFullConfig() FullConfig {
	return FullConfig{
		Site: SiteConfig{
			Title:       "EcoSphere",
			Description: "Environmental awareness platform",
			Keywords:    []string{"environment", "sustainability"},
		},
		NewsAPI: NewsAPIOptions{
			Endpoint: "https://newsapi.org/v2/everything",
			Query:    "environment",
			PageSize: 12,
			CacheTTL: 1800,
		},
		Inference: InferenceOptions{
			TimeoutSeconds: 30,
		},
		Payment: PaymentOptions{
			Currency: "INR",
			Endpoint: "https://api.razorpay.com/v1",
		},
		AI: AIConfig{
			EnableAssist: true,
		},
	}
}
