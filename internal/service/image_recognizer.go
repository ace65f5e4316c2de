package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/maigenai/fingenius/internal/llm"
	"github.com/maigenai/fingenius/pkg/config"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TesseractRecognizer runs local OCR. A gosseract client is not safe for concurrent use,
// so each call gets its own.
type TesseractRecognizer struct {
	languages []string
	logger    *zap.Logger
}

func NewTesseractRecognizer(languages []string, logger *zap.Logger) *TesseractRecognizer {
	return &TesseractRecognizer{languages: languages, logger: logger}
}

func (t *TesseractRecognizer) RecognizeImage(ctx context.Context, image []byte, fileName string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if len(t.languages) > 0 {
		if err := client.SetLanguage(t.languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR languages: %w", err)
		}
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return text, nil
}

// VisionRecognizer delegates to the GigaChat vision endpoints.
type VisionRecognizer struct {
	vision *llm.GigaChatVision
}

// refusalPhrases are replies the vision model gives instead of a transcription.
var refusalPhrases = []string{
	"не могу помочь",
	"не могу обработать",
	"не могу извлечь",
	"cannot help",
	"cannot process",
	"please provide",
}

func NewVisionRecognizer(vision *llm.GigaChatVision) *VisionRecognizer {
	return &VisionRecognizer{vision: vision}
}

func (v *VisionRecognizer) RecognizeImage(ctx context.Context, image []byte, fileName string) (string, error) {
	text, err := v.vision.Recognize(ctx, image, fileName)
	if err != nil {
		return "", err
	}
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return "", fmt.Errorf("model refused to transcribe: %s", text)
		}
	}
	return text, nil
}

// NewImageRecognizer picks the OCR backend from config.
func NewImageRecognizer(cfg *config.Config, logger *zap.Logger) (ImageRecognizer, error) {
	switch cfg.OCR.Provider {
	case "tesseract":
		return NewTesseractRecognizer(cfg.OCR.Languages, logger), nil
	case "gigachat":
		return NewVisionRecognizer(llm.NewGigaChatVision(&cfg.GigaChat, "", logger)), nil
	}
	return nil, fmt.Errorf("unsupported OCR provider %q", cfg.OCR.Provider)
}
