// Package illustrate implements the illustration stage: generating a dish
// image with Vertex AI's Imagen prediction endpoint, re-encoding it as JPEG,
// and uploading it to Cloud Storage under a public URL.
package illustrate

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"text/template"
	"time"

	"cloud.google.com/go/storage"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/tastebase/recipe-api/internal/config"
	"github.com/tastebase/recipe-api/internal/domain"
)

//go:embed prompts/image.tmpl
var imagePromptTemplate string

// jpegQuality matches typical web-delivery compression.
const jpegQuality = 80

var errNoImage = errors.New("no image generated in response")

// promptData feeds the image prompt template.
type promptData struct {
	DishName        string
	DishDescription string
	BackgroundColor string
}

// uploader stores an image and returns its public URL. Split out so tests
// can run the full stage without Cloud Storage.
type uploader interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

// gcsUploader writes objects to a public Cloud Storage bucket.
type gcsUploader struct {
	bucket *storage.BucketHandle
	name   string
}

func (u *gcsUploader) Upload(ctx context.Context, name string, data []byte) (string, error) {
	w := u.bucket.Object(name).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", name, err)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", u.name, name), nil
}

// Service generates and stores recipe images.
type Service struct {
	cfg         config.ImageConfig
	httpClient  *http.Client
	tokenSource oauth2.TokenSource
	uploader    uploader
	tmpl        *template.Template
	endpoint    string
	logger      *slog.Logger
}

// New creates an illustration service. It needs application-default
// credentials with Vertex AI and Cloud Storage access.
func New(ctx context.Context, cfg config.ImageConfig, logger *slog.Logger) (*Service, error) {
	if cfg.ProjectID == "" || cfg.Bucket == "" {
		return nil, errors.New("image project ID and bucket are required")
	}

	ts, err := google.DefaultTokenSource(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("failed to build token source: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	endpoint := fmt.Sprintf(
		"https://%s-aiplatform.googleapis.com/v1/projects/%s/locations/%s/publishers/google/models/%s:predict",
		cfg.Location, cfg.ProjectID, cfg.Location, cfg.ModelName)

	return newService(cfg, ts, &gcsUploader{bucket: storageClient.Bucket(cfg.Bucket), name: cfg.Bucket}, endpoint, logger), nil
}

func newService(cfg config.ImageConfig, ts oauth2.TokenSource, up uploader, endpoint string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: 90 * time.Second},
		tokenSource: ts,
		uploader:    up,
		tmpl:        template.Must(template.New("image").Parse(imagePromptTemplate)),
		endpoint:    endpoint,
		logger:      logger.With(slog.String("component", "illustrate")),
	}
}

// Illustrate generates an image for the recipe, compresses it, uploads it
// named after the job, and returns the public URL.
func (s *Service) Illustrate(ctx context.Context, jobID string, recipe *domain.Recipe) (string, error) {
	prompt, err := s.buildPrompt(recipe)
	if err != nil {
		return "", err
	}

	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	compressed := s.recompress(raw)

	name := objectName(jobID)
	url, err := s.uploader.Upload(ctx, name, compressed)
	if err != nil {
		return "", err
	}

	s.logger.InfoContext(ctx, "image uploaded",
		"job_id", jobID,
		"object", name,
		"bytes", len(compressed))
	return url, nil
}

func (s *Service) buildPrompt(recipe *domain.Recipe) (string, error) {
	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, promptData{
		DishName:        recipe.Name,
		DishDescription: recipe.ImagePrompt,
		BackgroundColor: s.cfg.BackgroundColor,
	})
	if err != nil {
		return "", fmt.Errorf("failed to render image prompt: %w", err)
	}
	return buf.String(), nil
}

// predictRequest and predictResponse mirror the Imagen predict wire format.
type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string `json:"prompt"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount"`
	AspectRatio string `json:"aspectRatio,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
	} `json:"predictions"`
}

// generate calls the Imagen predict endpoint and returns the raw image bytes.
func (s *Service) generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(predictRequest{
		Instances: []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{
			SampleCount: 1,
			AspectRatio: s.cfg.AspectRatio,
			Width:       s.cfg.Width,
			Height:      s.cfg.Height,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal predict request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build predict request: %w", err)
	}

	token, err := s.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to obtain access token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict call failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("predict call failed: status %d: %s", resp.StatusCode, detail)
	}

	var parsed predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode predict response: %w", err)
	}
	if len(parsed.Predictions) == 0 || parsed.Predictions[0].BytesBase64Encoded == "" {
		return nil, errNoImage
	}

	raw, err := base64.StdEncoding.DecodeString(parsed.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image bytes: %w", err)
	}
	return raw, nil
}

// recompress re-encodes the image as web-quality JPEG. If the bytes do not
// decode as an image, the original payload is kept.
func (s *Service) recompress(raw []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		s.logger.Warn("image re-encode skipped, keeping original bytes", "error", err)
		return raw
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		s.logger.Warn("jpeg encode failed, keeping original bytes", "error", err)
		return raw
	}
	return buf.Bytes()
}

func objectName(jobID string) string {
	return fmt.Sprintf("recipe_%s_%d.jpg", jobID, time.Now().UnixMilli())
}
