package genclient

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	genai "google.golang.org/genai"
)

var fencePattern = regexp.MustCompile("```(plaintext|json)?")

// transportError re-raises a service failure as a task-scoped error that
// still carries the underlying message.
func transportError(task string, err error) error {
	return fmt.Errorf("%s: %w: %v", task, ErrServiceUnreachable, err)
}

// AuthorClinicalPrompt converts a free-text student request plus patient
// demographics into a single normalized clinical description string.
func (c *Client) AuthorClinicalPrompt(ctx context.Context, userInput string, age int, gender string) (string, error) {
	userInput = strings.TrimSpace(userInput)
	if userInput == "" {
		return "", taskError("author clinical prompt", ErrUserInput)
	}

	full := fmt.Sprintf("User Request: %q\nPatient Age: %d\nPatient Gender: %s", userInput, age, gender)
	resp, err := c.cli.Models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(full)}, genai.RoleUser)},
		textConfig(promptAuthoringProfile, 0.2),
	)
	if err != nil {
		return "", transportError("author clinical prompt", err)
	}
	out := strings.TrimSpace(fencePattern.ReplaceAllString(firstText(resp), ""))
	if out == "" {
		return "", taskError("author clinical prompt", ErrEmptyResponse)
	}
	return out, nil
}

// SynthesizeImage generates one synthetic X-ray image for the clinical
// description. A response without an image is a refusal, not a partial result.
func (c *Client) SynthesizeImage(ctx context.Context, clinicalPrompt string) (ImageData, error) {
	resp, err := c.cli.Models.GenerateImages(ctx, c.imageModel, clinicalPrompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/png",
		// Square aspect ratio is common for X-rays.
		AspectRatio: "1:1",
	})
	if err != nil {
		return ImageData{}, transportError("synthesize image", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return ImageData{}, taskError("synthesize image", ErrGenerationRefused)
	}
	img := resp.GeneratedImages[0].Image
	mime := img.MIMEType
	if mime == "" {
		mime = "image/png"
	}
	return ImageData{MIMEType: mime, Data: img.ImageBytes}, nil
}

// AnalyzeUpload derives a clinical description from an uploaded X-ray image.
// Runs under the stricter objective-findings profile. Non-image payloads are
// rejected before any network call.
func (c *Client) AnalyzeUpload(ctx context.Context, data []byte, mimeType string) (string, error) {
	if !strings.HasPrefix(mimeType, "image/") || len(data) == 0 {
		return "", taskError("analyze upload", ErrUserInput)
	}

	parts := []*genai.Part{{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}}}
	resp, err := c.cli.Models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		textConfig(imageAnalysisProfile, 0.2),
	)
	if err != nil {
		return "", transportError("analyze upload", err)
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", taskError("analyze upload", ErrEmptyResponse)
	}
	return out, nil
}

// AuthorExplanation produces the structured educational explanation for a
// clinical description. The text is treated as opaque here; section markers
// are the presentation layer's concern.
func (c *Client) AuthorExplanation(ctx context.Context, clinicalPrompt string) (string, error) {
	req := fmt.Sprintf("Based on the following synthetic X-ray description, provide an educational explanation: %q", clinicalPrompt)
	resp, err := c.cli.Models.GenerateContent(ctx, c.textModel,
		[]*genai.Content{genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(req)}, genai.RoleUser)},
		textConfig(explanationProfile, 0.3),
	)
	if err != nil {
		return "", transportError("author explanation", err)
	}
	out := strings.TrimSpace(firstText(resp))
	if out == "" {
		return "", taskError("author explanation", ErrEmptyResponse)
	}
	return out, nil
}

// PointerAnalysis is the result of analyzing an annotated image: both halves
// are mandatory.
type PointerAnalysis struct {
	Explanation string
	Diagram     ImageData
}

// AnalyzePointer sends the annotated image to the image-capable model and
// extracts the explanation text and diagram image from the mixed response.
func (c *Client) AnalyzePointer(ctx context.Context, annotated ImageData) (PointerAnalysis, error) {
	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: annotated.MIMEType, Data: annotated.Data}},
		genai.NewPartFromText(pointerAnalysisRequest),
	}
	resp, err := c.cli.Models.GenerateContent(ctx, c.visionModel,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction:  &genai.Content{Parts: []*genai.Part{{Text: pointerAnalysisProfile}}},
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	)
	if err != nil {
		return PointerAnalysis{}, transportError("analyze pointer", err)
	}

	var out PointerAnalysis
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, p := range resp.Candidates[0].Content.Parts {
			if p == nil {
				continue
			}
			if p.Text != "" {
				out.Explanation = p.Text
			} else if p.InlineData != nil && len(p.InlineData.Data) > 0 {
				mime := p.InlineData.MIMEType
				if mime == "" {
					mime = "image/png"
				}
				out.Diagram = ImageData{MIMEType: mime, Data: p.InlineData.Data}
			}
		}
	}
	if out.Explanation == "" || len(out.Diagram.Data) == 0 {
		return PointerAnalysis{}, taskError("analyze pointer", ErrIncompleteAnalysis)
	}
	return out, nil
}
