package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendAppwrite = "appwrite"
	BackendSupabase = "supabase"

	FileBackendS3  = "s3"
	FileBackendGCS = "gcs"
)

type Config struct {
	Port       string
	LogLevel   string
	JWTSecret  string
	SessionTTL time.Duration
	Backend    string

	Appwrite Appwrite
	Supabase Supabase
	Files    Files
	Redis    Redis

	RemoteTimeout  time.Duration
	RemoteRPS      float64
	QueryCacheSize int
	QueryStaleTime time.Duration
	OTLPEndpoint   string
}

type Appwrite struct {
	Endpoint          string
	ProjectID         string
	APIKey            string
	DatabaseID        string
	UserCollectionID  string
	PostCollectionID  string
	SavesCollectionID string
	StorageID         string
}

// Supabase : auth GoTrue + base Postgres + stockage S3/GCS.
type Supabase struct {
	URL            string
	AnonKey        string
	ServiceRoleKey string
	DBUrl          string
}

type Files struct {
	Backend         string
	AWSRegion       string
	AWSBucket       string
	AWSAccessKey    string
	AWSSecretKey    string
	AWSEndpoint     string
	GCSBucket       string
	PublicURLPrefix string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

func LoadConfig() *Config {
	return &Config{
		Port:       getenv("PORT", "8080"),
		LogLevel:   getenv("LOG_LEVEL", "INFO"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		SessionTTL: getDuration("SESSION_TTL", 24*time.Hour),
		Backend:    strings.ToLower(getenv("BACKEND", BackendAppwrite)),
		Appwrite: Appwrite{
			Endpoint:          os.Getenv("APPWRITE_ENDPOINT"),
			ProjectID:         os.Getenv("APPWRITE_PROJECT_ID"),
			APIKey:            os.Getenv("APPWRITE_API_KEY"),
			DatabaseID:        os.Getenv("APPWRITE_DATABASE_ID"),
			UserCollectionID:  getenv("APPWRITE_USER_COLLECTION_ID", "users"),
			PostCollectionID:  getenv("APPWRITE_POST_COLLECTION_ID", "posts"),
			SavesCollectionID: getenv("APPWRITE_SAVES_COLLECTION_ID", "saves"),
			StorageID:         os.Getenv("APPWRITE_STORAGE_ID"),
		},
		Supabase: Supabase{
			URL:            os.Getenv("NEXT_PUBLIC_SUPABASE_URL"),
			AnonKey:        os.Getenv("SUPABASE_ANON_KEY"),
			ServiceRoleKey: os.Getenv("SUPABASE_SERVICE_ROLE_KEY"),
			DBUrl:          os.Getenv("SUPABASE_DB_URL"),
		},
		Files: Files{
			Backend:         strings.ToLower(getenv("FILE_BACKEND", FileBackendS3)),
			AWSRegion:       getenv("AWS_REGION", "eu-west-3"),
			AWSBucket:       os.Getenv("AWS_BUCKET_NAME"),
			AWSAccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			AWSSecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			AWSEndpoint:     os.Getenv("AWS_ENDPOINT"),
			GCSBucket:       os.Getenv("GCS_BUCKET"),
			PublicURLPrefix: os.Getenv("FILES_PUBLIC_URL"),
		},
		Redis: Redis{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		RemoteTimeout:  getDuration("REMOTE_TIMEOUT", 30*time.Second),
		RemoteRPS:      getFloat("REMOTE_RPS", 0),
		QueryCacheSize: getInt("QUERY_CACHE_SIZE", 512),
		QueryStaleTime: getDuration("QUERY_STALE_TIME", 0),
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}
}

// Validate vérifie les variables obligatoires pour le backend choisi.
func (c *Config) Validate() error {
	var missing []string
	need := func(name, value string) {
		if value == "" {
			missing = append(missing, name)
		}
	}

	need("JWT_SECRET", c.JWTSecret)

	switch c.Backend {
	case BackendAppwrite:
		need("APPWRITE_ENDPOINT", c.Appwrite.Endpoint)
		need("APPWRITE_PROJECT_ID", c.Appwrite.ProjectID)
		need("APPWRITE_DATABASE_ID", c.Appwrite.DatabaseID)
		need("APPWRITE_STORAGE_ID", c.Appwrite.StorageID)
	case BackendSupabase:
		need("NEXT_PUBLIC_SUPABASE_URL", c.Supabase.URL)
		need("SUPABASE_ANON_KEY", c.Supabase.AnonKey)
		need("SUPABASE_SERVICE_ROLE_KEY", c.Supabase.ServiceRoleKey)
		need("SUPABASE_DB_URL", c.Supabase.DBUrl)
		switch c.Files.Backend {
		case FileBackendS3:
			need("AWS_BUCKET_NAME", c.Files.AWSBucket)
		case FileBackendGCS:
			need("GCS_BUCKET", c.Files.GCSBucket)
		default:
			return fmt.Errorf("FILE_BACKEND inconnu : %s", c.Files.Backend)
		}
	default:
		return fmt.Errorf("BACKEND inconnu : %s", c.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("variables manquantes : %s", strings.Join(missing, ", "))
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
