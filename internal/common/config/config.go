// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Draft         DraftConfig        `mapstructure:"draft"`
	Wizard        WizardConfig       `mapstructure:"wizard"`
	Uploads       UploadsConfig      `mapstructure:"uploads"`
	Documents     DocumentsConfig    `mapstructure:"documents"`
	Delivery      DeliveryConfig     `mapstructure:"delivery"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address      string `mapstructure:"address" validate:"required"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout int    `mapstructure:"write_timeout"` // milliseconds
	// SecureCookies sets the Secure attribute on the session cookie.
	SecureCookies bool `mapstructure:"secure_cookies"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DraftConfig controls where in-progress applications are kept between visits.
type DraftConfig struct {
	Store     string `mapstructure:"store" validate:"oneof=redis memory"`
	KeyPrefix string `mapstructure:"key_prefix" validate:"required"`
	TTL       int    `mapstructure:"ttl"` // hours, 0 keeps drafts until overwritten
}

// WizardConfig holds the product decisions left open for the application wizard.
type WizardConfig struct {
	CompletenessMode   string `mapstructure:"completeness_mode" validate:"oneof=lenient strict"`
	ClearDraftOnSubmit bool   `mapstructure:"clear_draft_on_submit"`
	MaskSensitive      bool   `mapstructure:"mask_sensitive"`
	SuccessRoute       string `mapstructure:"success_route" validate:"required,startswith=/"`
	PersistPosition    bool   `mapstructure:"persist_position"`
}

type UploadsConfig struct {
	MaxBytes     int64    `mapstructure:"max_bytes" validate:"gt=0"`
	AllowedTypes []string `mapstructure:"allowed_types" validate:"min=1"`
}

type DocumentsConfig struct {
	Store     string `mapstructure:"store" validate:"oneof=minio memory"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// DeliveryConfig selects and configures the backend that hands finished applications to the operator.
type DeliveryConfig struct {
	Backend       string `mapstructure:"backend" validate:"oneof=formrelay ses workflow"`
	OperatorEmail string `mapstructure:"operator_email" validate:"required,email"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds

	FormRelay struct {
		Endpoint string `mapstructure:"endpoint"`
		Subject  string `mapstructure:"subject"`
	} `mapstructure:"formrelay"`

	SES struct {
		Region    string `mapstructure:"region"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"ses"`

	Workflow struct {
		BrokerAddress string `mapstructure:"broker_address"`
		ProcessID     string `mapstructure:"process_id"`
		Plaintext     bool   `mapstructure:"plaintext"`
	} `mapstructure:"workflow"`
}

// NotificationConfig holds the optional operator SMS alert.
type NotificationConfig struct {
	SMS struct {
		Enabled     bool   `mapstructure:"enabled"`
		Region      string `mapstructure:"region"`
		PhoneNumber string `mapstructure:"phone_number"`
		SenderID    string `mapstructure:"sender_id"`
	} `mapstructure:"sms"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
