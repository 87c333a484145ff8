// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const defaultMaxUploadBytes = 5 << 20 // 5 MiB

func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // the environment overlay is optional

	return finish(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	// Booleans that default to true cannot be told apart from an explicit false after Unmarshal.
	v.SetDefault("wizard.clear_draft_on_submit", true)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile() {
	possiblePaths := []string{".env", "../.env", "../../.env"}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			if expanded := os.ExpandEnv(strVal); expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills secrets that are conventionally provided as bare env vars.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Database.Redis.Password == "" {
		cfg.Database.Redis.Password = os.Getenv("REDIS_PASSWORD")
	}
	if cfg.Documents.AccessKey == "" {
		cfg.Documents.AccessKey = os.Getenv("DOCUMENTS_ACCESS_KEY")
	}
	if cfg.Documents.SecretKey == "" {
		cfg.Documents.SecretKey = os.Getenv("DOCUMENTS_SECRET_KEY")
	}
	if cfg.Delivery.OperatorEmail == "" {
		cfg.Delivery.OperatorEmail = os.Getenv("OPERATOR_EMAIL")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "nominee-applications"
	}

	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60000
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Draft.Store == "" {
		cfg.Draft.Store = "redis"
	}
	if cfg.Draft.KeyPrefix == "" {
		cfg.Draft.KeyPrefix = "nominee-application-draft"
	}

	if cfg.Wizard.CompletenessMode == "" {
		cfg.Wizard.CompletenessMode = "lenient"
	}
	if cfg.Wizard.SuccessRoute == "" {
		cfg.Wizard.SuccessRoute = "/application/success"
	}

	if cfg.Uploads.MaxBytes == 0 {
		cfg.Uploads.MaxBytes = defaultMaxUploadBytes
	}
	if len(cfg.Uploads.AllowedTypes) == 0 {
		cfg.Uploads.AllowedTypes = []string{"image/jpeg", "image/jpg", "image/png", "application/pdf"}
	}

	if cfg.Documents.Store == "" {
		cfg.Documents.Store = "memory"
	}
	if cfg.Documents.Bucket == "" {
		cfg.Documents.Bucket = "nominee-application-documents"
	}

	if cfg.Delivery.Backend == "" {
		cfg.Delivery.Backend = "formrelay"
	}
	if cfg.Delivery.Timeout == 0 {
		cfg.Delivery.Timeout = 30000
	}
	if cfg.Delivery.FormRelay.Endpoint == "" {
		cfg.Delivery.FormRelay.Endpoint = "https://formsubmit.co"
	}
	if cfg.Delivery.FormRelay.Subject == "" {
		cfg.Delivery.FormRelay.Subject = "New Nominee Director Application"
	}
	if cfg.Delivery.Workflow.ProcessID == "" {
		cfg.Delivery.Workflow.ProcessID = "nominee-application"
	}
}

var validate = validator.New()

func validateConfig(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if cfg.Draft.Store == "redis" && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when draft.store is redis")
	}
	if cfg.Documents.Store == "minio" && cfg.Documents.Endpoint == "" {
		return fmt.Errorf("documents.endpoint is required when documents.store is minio")
	}

	switch cfg.Delivery.Backend {
	case "ses":
		if cfg.Delivery.SES.Region == "" || cfg.Delivery.SES.FromEmail == "" {
			return fmt.Errorf("delivery.ses.region and delivery.ses.from_email are required for the ses backend")
		}
	case "workflow":
		if cfg.Delivery.Workflow.BrokerAddress == "" {
			return fmt.Errorf("delivery.workflow.broker_address is required for the workflow backend")
		}
	}

	if cfg.Notifications.SMS.Enabled && cfg.Notifications.SMS.PhoneNumber == "" {
		return fmt.Errorf("notifications.sms.phone_number is required when sms alerts are enabled")
	}
	return nil
}
