package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	internalconfig "github.com/foxseedlab/koenote/internal/config"
)

type envConfig struct {
	Env                        string `env:"ENV" envDefault:"production"`
	Port                       int    `env:"PORT" envDefault:"8080"`
	UploadDir                  string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	DatabaseURL                string `env:"DATABASE_URL"`
	DefaultLanguage            string `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	GoogleCloudProjectID       string `env:"GOOGLE_CLOUD_PROJECT_ID,required"`
	GoogleCloudCredentialsJSON string `env:"GOOGLE_CLOUD_CREDENTIALS_JSON,required"`
	GoogleCloudSpeechLocation  string `env:"GOOGLE_CLOUD_SPEECH_LOCATION" envDefault:"global"`
	GoogleCloudSpeechModel     string `env:"GOOGLE_CLOUD_SPEECH_MODEL" envDefault:"chirp_3"`
	AnthropicAPIKey            string `env:"ANTHROPIC_API_KEY,required"`
	AnthropicModel             string `env:"ANTHROPIC_MODEL" envDefault:"claude-haiku-4-5"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                        raw.Env,
		Port:                       raw.Port,
		UploadDir:                  raw.UploadDir,
		DatabaseURL:                raw.DatabaseURL,
		DefaultLanguage:            raw.DefaultLanguage,
		GoogleCloudProjectID:       raw.GoogleCloudProjectID,
		GoogleCloudCredentialsJSON: raw.GoogleCloudCredentialsJSON,
		GoogleCloudSpeechLocation:  raw.GoogleCloudSpeechLocation,
		GoogleCloudSpeechModel:     raw.GoogleCloudSpeechModel,
		AnthropicAPIKey:            raw.AnthropicAPIKey,
		AnthropicModel:             raw.AnthropicModel,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
