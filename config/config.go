package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	TranscriberOpenAI     = "openai"
	TranscriberWhisperCpp = "whispercpp"
)

// Config holds everything the entry point needs to build the pipeline. Values
// come from a YAML file when one is given, overridden by the environment.
type Config struct {
	OpenAI        OpenAIConfig        `yaml:"openai"`
	Tools         ToolConfig          `yaml:"tools"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Quiz          QuizConfig          `yaml:"quiz"`
	Server        ServerConfig        `yaml:"server"`
	WorkDir       string              `yaml:"work_dir" env:"WORK_DIR" env-description:"base directory for per-job scratch dirs"`
	LogLevel      string              `yaml:"log_level" env:"LOG_LEVEL" env-default:"info" validate:"oneof=verbose debug info warn warning error"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL string `yaml:"base_url" env:"OPENAI_BASE_URL" validate:"omitempty,url"`
}

type ToolConfig struct {
	YtDlpPath   string `yaml:"yt_dlp" env:"YTDLP_PATH" env-default:"yt-dlp" validate:"required"`
	YtDlpCookie string `yaml:"yt_dlp_cookies" env:"YTDLP_COOKIES"`
	YtDlpProxy  string `yaml:"yt_dlp_proxy" env:"YTDLP_PROXY" validate:"omitempty,url"`
	FFmpegPath  string `yaml:"ffmpeg" env:"FFMPEG_PATH" env-default:"ffmpeg" validate:"required"`
}

type TranscriptionConfig struct {
	Backend         string `yaml:"backend" env:"TRANSCRIBER" env-default:"openai" validate:"oneof=openai whispercpp"`
	WhisperModel    string `yaml:"whisper_model" env:"WHISPER_MODEL" env-default:"whisper-1"`
	Language        string `yaml:"language" env:"WHISPER_LANGUAGE" env-default:"auto"`
	WhisperCppPath  string `yaml:"whispercpp_path" env:"WHISPERCPP_PATH" env-default:"whisper-cli"`
	WhisperCppModel string `yaml:"whispercpp_model" env:"WHISPERCPP_MODEL"`
}

type QuizConfig struct {
	Model             string `yaml:"model" env:"QUIZ_MODEL" env-default:"gpt-4o-mini" validate:"required"`
	Language          string `yaml:"language" env:"QUIZ_LANGUAGE" env-default:"Portuguese" validate:"required"`
	MaxTokens         int    `yaml:"max_tokens" env:"QUIZ_MAX_TOKENS" env-default:"512" validate:"min=1"`
	Seed              int    `yaml:"seed" env:"QUIZ_SEED" env-default:"42"`
	CondenseThreshold int    `yaml:"condense_threshold" env:"CONDENSE_THRESHOLD" env-default:"12000" validate:"min=0"`
}

type ServerConfig struct {
	Host string `yaml:"host" env:"HOST_ADDR" env-default:"127.0.0.1"`
	Port int    `yaml:"port" env:"HOST_PORT" env-default:"7860" validate:"min=1,max=65535"`
}

// Load reads an optional .env file, then either the YAML file at path (when
// non-empty) or the environment alone, and validates the result.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var cfg Config
	var err error
	if path != "" {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field formats and the requirements of the chosen backend.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Transcription.Backend == TranscriberWhisperCpp && c.Transcription.WhisperCppModel == "" {
		return fmt.Errorf("invalid configuration: WHISPERCPP_MODEL is required for the whispercpp transcriber")
	}
	// Question generation always goes through the chat API.
	if c.OpenAI.APIKey == "" && c.OpenAI.BaseURL == "" {
		return fmt.Errorf("invalid configuration: OPENAI_API_KEY environment variable is not set")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
