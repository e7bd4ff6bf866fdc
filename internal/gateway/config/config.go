package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"medxtutor/internal/genclient"
)

type Config struct {
	Port        string
	Env         string
	Gemini      GeminiConfig
	Artifact    ArtifactConfig
	SessionPath string
}

type GeminiConfig struct {
	TextModel   string
	ImageModel  string
	VisionModel string
}

type ArtifactConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		Gemini:      loadGeminiConfig(),
		Artifact:    loadArtifactConfig(env),
		SessionPath: firstNonEmpty(strings.TrimSpace(os.Getenv("SESSION_STORE_PATH")), "data/sessions.json"),
	}, nil
}

func loadGeminiConfig() GeminiConfig {
	defaults := genclient.DefaultModels()
	return GeminiConfig{
		TextModel:   firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_TEXT_MODEL")), defaults.Text),
		ImageModel:  firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_IMAGE_MODEL")), defaults.Image),
		VisionModel: firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_VISION_MODEL")), defaults.Vision),
	}
}

func (g GeminiConfig) Models() genclient.Models {
	return genclient.Models{
		Text:   g.TextModel,
		Image:  g.ImageModel,
		Vision: g.VisionModel,
	}
}

func loadArtifactConfig(env string) ArtifactConfig {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return localArtifactConfig()
	}
	endpoint := strings.TrimSpace(os.Getenv("ARTIFACT_S3_ENDPOINT"))
	return ArtifactConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "medxtutor-artifacts"),
		UseSSL:    resolveArtifactUseSSL(env),
	}
}

func resolveArtifactUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("ARTIFACT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
