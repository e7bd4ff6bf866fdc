package genclient

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// Client is a thin wrapper around the official genai client. It only focuses
// on the API calls themselves; sequencing and state live in the pipeline.
type Client struct {
	cli *genai.Client

	textModel   string
	imageModel  string
	visionModel string
}

// Models selects which remote models serve each task kind.
type Models struct {
	Text   string
	Image  string
	Vision string
}

func DefaultModels() Models {
	return Models{
		Text:   "gemini-2.5-flash",
		Image:  "imagen-4.0-generate-001",
		Vision: "gemini-2.5-flash-image-preview",
	}
}

func New(ctx context.Context, models Models) (*Client, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("init genai client: %w", err)
	}
	if strings.TrimSpace(models.Text) == "" {
		models = DefaultModels()
	}
	return &Client{
		cli:         cli,
		textModel:   models.Text,
		imageModel:  models.Image,
		visionModel: models.Vision,
	}, nil
}

// ImageData is one raster image returned by or sent to the service.
type ImageData struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as a displayable data URI.
func (d ImageData) DataURI() string {
	return "data:" + d.MIMEType + ";base64," + base64Encode(d.Data)
}

func textConfig(profile string, temperature float32) *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: profile}}},
		Temperature:       genai.Ptr[float32](temperature),
	}
}

// firstText concatenates the text parts of the first candidate.
func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}
