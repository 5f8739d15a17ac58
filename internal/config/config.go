package config

import "fmt"

const (
	// MaxCaptureSeconds is the hard ceiling for one capture session.
	MaxCaptureSeconds = 900
	// MaxUploadBytes is the multipart upload limit for process-audio.
	MaxUploadBytes = 50 << 20
)

type Config struct {
	Env                        string
	Port                       int
	UploadDir                  string
	DatabaseURL                string
	DefaultLanguage            string
	GoogleCloudProjectID       string
	GoogleCloudCredentialsJSON string
	GoogleCloudSpeechLocation  string
	GoogleCloudSpeechModel     string
	AnthropicAPIKey            string
	AnthropicModel             string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT must be in 1..65535, got %d", c.Port)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "UPLOAD_DIR", value: c.UploadDir},
		{name: "DEFAULT_LANGUAGE", value: c.DefaultLanguage},
		{name: "GOOGLE_CLOUD_PROJECT_ID", value: c.GoogleCloudProjectID},
		{name: "GOOGLE_CLOUD_CREDENTIALS_JSON", value: c.GoogleCloudCredentialsJSON},
		{name: "ANTHROPIC_API_KEY", value: c.AnthropicAPIKey},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
