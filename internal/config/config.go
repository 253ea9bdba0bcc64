package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Storage StorageConfig `mapstructure:"storage"`
	CORS    CORSConfig    `mapstructure:"cors"`
	Log     LogConfig     `mapstructure:"log"`
	// AppHost is the root domain; <username>.<AppHost> scopes the timeline to one user.
	AppHost string `mapstructure:"host"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DBConfig struct {
	Source string `mapstructure:"source"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// StorageConfig is a tagged union: Provider selects which nested block is read.
type StorageConfig struct {
	Provider      string         `mapstructure:"provider"`
	Path          string         `mapstructure:"path"`
	PublicBaseURL string         `mapstructure:"public_base_url"`
	Bucket        string         `mapstructure:"bucket"`
	S3            S3Config       `mapstructure:"s3"`
	Supabase      SupabaseConfig `mapstructure:"supabase"`
}

type S3Config struct {
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

type SupabaseConfig struct {
	URL            string `mapstructure:"url"`
	ServiceRoleKey string `mapstructure:"service_role_key"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("jwt.ttl", 7*24*time.Hour)
	v.SetDefault("upload.ttl", 2*time.Hour)
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.path", "./data/objects")
	v.SetDefault("storage.public_base_url", "http://localhost:8080")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("cors.allowed_origins", []string{"*"})
	// Keys without a real default must still be known for AutomaticEnv to reach them in Unmarshal.
	for _, key := range []string{
		"db.source", "jwt.secret", "host", "storage.bucket", "storage.s3.endpoint",
		"storage.s3.access_key_id", "storage.s3.secret_access_key",
		"storage.supabase.url", "storage.supabase.service_role_key",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("log.development", false)
	v.SetDefault("storage.s3.use_path_style", false)
}

func Load() (*Config, error) {
	v := viper.New()
	v.AddConfigPath("./configs")
	v.AddConfigPath("/configs")
	v.SetConfigName("settings")
	v.SetConfigType("yml")

	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret must be set")
	}
	if c.DB.Source == "" {
		return errors.New("db.source must be set")
	}
	switch c.Storage.Provider {
	case "local":
	case "s3", "supabase":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for provider %q", c.Storage.Provider)
		}
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	return nil
}
