// path: internal/config/config.go
package config

import (
	"os"
	"strconv"
)

// Config is the process-wide configuration, assembled from the
// environment variables spec §6 enumerates.
type Config struct {
	Database  DatabaseConfig
	Server    ServerConfig
	Redis     RedisConfig
	Tables    TablesConfig
	Queue     QueueConfig
	Blob      BlobConfig
	Facebook  FacebookConfig
	Instagram InstagramConfig
	Twitter   TwitterConfig
	YouTube   YouTubeConfig
	LinkedIn  LinkedInConfig
	TikTok    TikTokConfig
	CORS      CORSConfig
	Security  SecurityConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type ServerConfig struct {
	Port string
	Host string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

// TablesConfig names the logical storage tables spec §6 enumerates. With
// a Postgres/gorm backend these are table names, not DynamoDB table ARNs,
// but the env var names are kept identical to the spec's interface.
type TablesConfig struct {
	SocialAccounts string
	UploadRequests string
	ScheduledPosts string
	OAuthState     string
}

type QueueConfig struct {
	PostingQueueURL string // redis list/asynq queue name in this deployment
}

type BlobConfig struct {
	VideoUploadBucket string
	Endpoint          string // regional bucket endpoint presigned URLs are issued against
}

type FacebookConfig struct {
	AppID     string
	AppSecret string
}

type InstagramConfig struct {
	AppID     string
	AppSecret string
}

type TwitterConfig struct {
	APIKey    string
	APISecret string
}

type YouTubeConfig struct {
	ClientID        string
	ClientSecret    string
	ClientSecretRef string // secret-store reference, per spec §6
}

type LinkedInConfig struct {
	ClientID     string
	ClientSecret string
}

type TikTokConfig struct {
	ClientKey    string
	ClientSecret string
}

type CORSConfig struct {
	AllowedOrigins []string
	FrontendURL    string
	APIBaseURL     string
}

type SecurityConfig struct {
	EncryptionKey string
	JWTSecret     string
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "social_publisher"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Tables: TablesConfig{
			SocialAccounts: getEnv("SOCIAL_ACCOUNTS_TABLE", "social_accounts"),
			UploadRequests: getEnv("UPLOAD_REQUESTS_TABLE", "upload_requests"),
			ScheduledPosts: getEnv("SCHEDULED_POSTS_TABLE", "scheduled_posts"),
			OAuthState:     getEnv("OAUTH_STATE_TABLE", "oauth_state"),
		},
		Queue: QueueConfig{
			PostingQueueURL: getEnv("POSTING_QUEUE_URL", "posting"),
		},
		Blob: BlobConfig{
			VideoUploadBucket: getEnv("VIDEO_UPLOAD_BUCKET", "video-uploads"),
			Endpoint:          getEnv("VIDEO_UPLOAD_ENDPOINT", "https://s3.us-west-2.amazonaws.com"),
		},
		Facebook: FacebookConfig{
			AppID:     getEnv("FACEBOOK_APP_ID", ""),
			AppSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		},
		Instagram: InstagramConfig{
			AppID:     getEnv("FACEBOOK_APP_ID", ""), // Instagram Graph API shares the Facebook app
			AppSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		},
		Twitter: TwitterConfig{
			APIKey:    getEnv("TWITTER_API_KEY", ""),
			APISecret: getEnv("TWITTER_API_SECRET", ""),
		},
		YouTube: YouTubeConfig{
			ClientID:        getEnv("YOUTUBE_CLIENT_ID", ""),
			ClientSecret:    getEnv("YOUTUBE_CLIENT_SECRET", ""),
			ClientSecretRef: getEnv("YOUTUBE_CLIENT_SECRET_REF", ""),
		},
		LinkedIn: LinkedInConfig{
			ClientID:     getEnv("LINKEDIN_CLIENT_ID", ""),
			ClientSecret: getEnv("LINKEDIN_CLIENT_SECRET", ""),
		},
		TikTok: TikTokConfig{
			ClientKey:    getEnv("TIKTOK_CLIENT_KEY", ""),
			ClientSecret: getEnv("TIKTOK_CLIENT_SECRET", ""),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getEnv("ALLOWED_ORIGINS", "")),
			FrontendURL:    getEnv("FRONTEND_URL", ""),
			APIBaseURL:     getEnv("API_BASE_URL", ""),
		},
		Security: SecurityConfig{
			EncryptionKey: getEnv("ENCRYPTION_KEY", ""),
			JWTSecret:     getEnv("JWT_SECRET", ""),
		},
	}
}

// SchedulerTickSeconds reads SCHEDULER_TICK_SECONDS, defaulting to the
// ~1 minute cadence spec §4.7 specifies.
func (c *Config) SchedulerTickSeconds() int {
	v, err := strconv.Atoi(getEnv("SCHEDULER_TICK_SECONDS", "60"))
	if err != nil || v <= 0 {
		return 60
	}
	return v
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
