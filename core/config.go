package core

import (
	"log"
	"net"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		FrontendBaseURL  string
		RollbarToken     string
		SendgridApiKey   string
		DefaultFromEmail mail.Address

		Server   ServerConfig
		Database DatabaseConfig
		Supabase SupabaseConfig
		Storage  StorageConfig
		AI       AIConfig
		RAG      RAGConfig
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugAddress    string
		ShutdownTimeout time.Duration
		MaxUploadSize   int64
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	SupabaseConfig struct {
		URL            string
		AnonKey        string
		ServiceRoleKey string
		JWTSecret      string
		JWTAudience    string
	}

	StorageConfig struct {
		Driver               string // gdrive | local
		LocalPath            string
		DriveCredentialsFile string
		DriveFolderID        string
		PublicLinks          bool
	}

	AIConfig struct {
		GeminiAPIKey   string
		Model          string
		EmbeddingModel string
		EmbeddingDims  int
	}

	RAGConfig struct {
		ChunkSize     int
		ChunkOverlap  int
		MatchCount    int
		MinSimilarity float64
	}
)

func (dbc DatabaseConfig) Address() string {
	return net.JoinHostPort(dbc.Host, dbc.Port)
}

// NewConfig reads the configuration from the environment (prefixed with the ENV name)
// and from `config/.env.<env>` when that file exists.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}

	// defaults
	v.SetDefault("debug", env == "DEV" || env == "TEST")
	v.SetDefault("testMode", env == "TEST")
	v.SetDefault("build", "develop")
	v.SetDefault("appName", "Plataforma APA")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "Plataforma APA <noreply@localhost>")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugAddress", ":4000")
	v.SetDefault("serverShutdownTimeout", 10*time.Second)
	v.SetDefault("serverMaxUploadSize", int64(20<<20))
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbName", "apa")
	v.SetDefault("dbUser", "postgres")
	v.SetDefault("dbPassword", "postgres")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbDisableTLS", env == "DEV" || env == "TEST")
	v.SetDefault("supabaseJWTAudience", "authenticated")
	v.SetDefault("storageDriver", "local")
	v.SetDefault("storageLocalPath", filepath.Join(os.TempDir(), "apa-files"))
	v.SetDefault("storagePublicLinks", true)
	v.SetDefault("aiModel", "gemini-2.0-flash")
	v.SetDefault("aiEmbeddingModel", "text-embedding-004")
	v.SetDefault("aiEmbeddingDims", 768)
	v.SetDefault("ragChunkSize", 1000)
	v.SetDefault("ragChunkOverlap", 200)
	v.SetDefault("ragMatchCount", 5)
	v.SetDefault("ragMinSimilarity", 0.5)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		FrontendBaseURL:  strings.TrimRight(v.GetString("frontendBaseURL"), "/"),
		RollbarToken:     v.GetString("rollbarToken"),
		SendgridApiKey:   v.GetString("sendgridApiKey"),
		DefaultFromEmail: *from,
		Server: ServerConfig{
			Host:            v.GetString("serverHost"),
			Address:         v.GetString("serverAddress"),
			DebugAddress:    v.GetString("serverDebugAddress"),
			ShutdownTimeout: v.GetDuration("serverShutdownTimeout"),
			MaxUploadSize:   v.GetInt64("serverMaxUploadSize"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("dbEngine"),
			Host:          v.GetString("dbHost"),
			Port:          v.GetString("dbPort"),
			Name:          v.GetString("dbName"),
			User:          v.GetString("dbUser"),
			Password:      v.GetString("dbPassword"),
			AdminUser:     v.GetString("dbAdminUser"),
			AdminPassword: v.GetString("dbAdminPassword"),
			DisableTLS:    v.GetBool("dbDisableTLS"),
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimRight(v.GetString("supabaseURL"), "/"),
			AnonKey:        v.GetString("supabaseAnonKey"),
			ServiceRoleKey: v.GetString("supabaseServiceRoleKey"),
			JWTSecret:      v.GetString("supabaseJWTSecret"),
			JWTAudience:    v.GetString("supabaseJWTAudience"),
		},
		Storage: StorageConfig{
			Driver:               v.GetString("storageDriver"),
			LocalPath:            v.GetString("storageLocalPath"),
			DriveCredentialsFile: v.GetString("storageDriveCredentialsFile"),
			DriveFolderID:        v.GetString("storageDriveFolderID"),
			PublicLinks:          v.GetBool("storagePublicLinks"),
		},
		AI: AIConfig{
			GeminiAPIKey:   v.GetString("geminiApiKey"),
			Model:          v.GetString("aiModel"),
			EmbeddingModel: v.GetString("aiEmbeddingModel"),
			EmbeddingDims:  v.GetInt("aiEmbeddingDims"),
		},
		RAG: RAGConfig{
			ChunkSize:     v.GetInt("ragChunkSize"),
			ChunkOverlap:  v.GetInt("ragChunkOverlap"),
			MatchCount:    v.GetInt("ragMatchCount"),
			MinSimilarity: v.GetFloat64("ragMinSimilarity"),
		},
	}
}
