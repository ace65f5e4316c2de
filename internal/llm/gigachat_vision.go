package llm

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/maigenai/fingenius/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"

	visionPrompt = `Extract all text from this financial document (statement, bill, receipt or screenshot).
Return only the text visible in the document, without comments.
Keep the structure: headings, lists and table rows as lines of text.
If the text is unreadable, return an empty string.`
)

// GigaChatVision recognizes text in images through the GigaChat files and chat REST endpoints.
type GigaChatVision struct {
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	model      string
	logger     *zap.Logger

	oauthURL string
	baseURL  string

	mu          sync.Mutex
	accessToken string
}

func NewGigaChatVision(cfg *config.GigaChatConfig, model string, logger *zap.Logger) *GigaChatVision {
	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("HTTP client TLS certificate verification is disabled")
	}
	if model == "" {
		model = "GigaChat-Pro"
	}

	return &GigaChatVision{
		cfg:        cfg,
		httpClient: httpClient,
		model:      model,
		logger:     logger,
		oauthURL:   gigaChatOAuthURL,
		baseURL:    gigaChatBaseURL,
	}
}

// Recognize uploads the image and asks the model to transcribe it.
// An expired token is refreshed once.
func (v *GigaChatVision) Recognize(ctx context.Context, image []byte, fileName string) (string, error) {
	text, err := v.recognize(ctx, image, fileName)
	if err == errUnauthorized {
		v.setToken("")
		text, err = v.recognize(ctx, image, fileName)
	}
	return text, err
}

var errUnauthorized = errors.New("gigachat: unauthorized")

func (v *GigaChatVision) recognize(ctx context.Context, image []byte, fileName string) (string, error) {
	token, err := v.token(ctx)
	if err != nil {
		return "", err
	}

	fileID, err := v.upload(ctx, token, image, fileName)
	if err != nil {
		return "", err
	}
	return v.complete(ctx, token, fileID)
}

func (v *GigaChatVision) token(ctx context.Context) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.accessToken != "" {
		return v.accessToken, nil
	}

	rqUID := uuid.New().String()
	formData := url.Values{}
	formData.Set("scope", v.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// the key is issued already Base64-encoded
	req.Header.Set("Authorization", "Basic "+v.cfg.APIKey)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		v.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(body))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	v.accessToken = oauthResp.AccessToken
	return v.accessToken, nil
}

func (v *GigaChatVision) setToken(token string) {
	v.mu.Lock()
	v.accessToken = token
	v.mu.Unlock()
}

func (v *GigaChatVision) upload(ctx context.Context, token string, image []byte, fileName string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	// "general" makes the file usable as a chat attachment
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName)))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(fileName))},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("failed to write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusUnauthorized:
		return "", errUnauthorized
	case http.StatusRequestEntityTooLarge:
		return "", fmt.Errorf("file too large (413)")
	default:
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(b))
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	v.logger.Debug("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

func (v *GigaChatVision) complete(ctx context.Context, token, fileID string) (string, error) {
	requestBody := map[string]interface{}{
		"model": v.model,
		"messages": []map[string]interface{}{
			{
				"role":        "user",
				"content":     visionPrompt,
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	}

	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", errUnauthorized
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("vision API failed with status %d: %s", resp.StatusCode, string(b))
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(visionResp.Choices[0].Message.Content)
	v.logger.Info("Text extracted via GigaChat Vision",
		zap.String("model", v.model),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}
