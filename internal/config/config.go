package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment string `mapstructure:"environment"`
	DB          struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Auth struct {
		Issuer    string `mapstructure:"issuer"`
		ClientID  string `mapstructure:"client_id"`
		RoleClaim string `mapstructure:"role_claim"`
		// Bypass trusts X-Actor-ID / X-Actor-Role headers instead of
		// verifying bearer tokens. Only honored when environment is DEV.
		Bypass bool `mapstructure:"bypass"`
	} `mapstructure:"auth"`
	Review struct {
		MinStages     int  `mapstructure:"min_stages"`
		MaxStages     int  `mapstructure:"max_stages"`
		MaxCommentLen int  `mapstructure:"max_comment_len"`
		BlindEnabled  bool `mapstructure:"blind_enabled"`
	} `mapstructure:"review"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig(path string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if path != "" {
		viper.AddConfigPath(path)
	}
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("review.min_stages", 2)
	viper.SetDefault("review.max_stages", 10)
	viper.SetDefault("review.max_comment_len", 1000)
	viper.SetDefault("review.blind_enabled", true)
	viper.SetDefault("auth.role_claim", "review_role")
	viper.SetDefault("db.sslmode", "disable")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// normalize the OIDC issuer url (strip trailing slash if any)
	config.Auth.Issuer = normalizeIssuer(config.Auth.Issuer)

	return &config, nil
}

// normalizeIssuer ensures the provided OIDC issuer string is in a predictable
// form. It removes any trailing slash and leaves the scheme and path intact,
// so users can paste the full URL from their IdP admin console.
func normalizeIssuer(input string) string {
	iss := strings.TrimSpace(input)
	if strings.HasSuffix(iss, "/") {
		iss = strings.TrimRight(iss, "/")
	}
	return iss
}
