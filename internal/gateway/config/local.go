package config

import (
	"os"
	"strings"
)

// localArtifactConfig wires the docker-compose minio instance. Overridable
// per variable, but enabled unconditionally so local runs always persist
// artifacts.
func localArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		Enabled:   true,
		Endpoint:  firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_MINIO_ENDPOINT")), "minio:9000"),
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_ACCESS_KEY")), "medxtutor"),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_SECRET_KEY")), "medxtutor123"),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("ARTIFACT_S3_BUCKET")), "medxtutor-artifacts"),
		UseSSL:    false,
	}
}
