package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

type MediaKind int

const (
	MediaUnsupported MediaKind = iota
	MediaPDF
	MediaImage
)

func (k MediaKind) String() string {
	switch k {
	case MediaPDF:
		return "pdf"
	case MediaImage:
		return "image"
	}
	return "unsupported"
}

// MediaKindFromFilename maps .pdf, .png, .jpg and .jpeg to their kind.
func MediaKindFromFilename(name string) MediaKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MediaPDF
	case ".png", ".jpg", ".jpeg":
		return MediaImage
	}
	return MediaUnsupported
}

// ImageRecognizer turns an image into text.
type ImageRecognizer interface {
	RecognizeImage(ctx context.Context, image []byte, fileName string) (string, error)
}

type TextExtractor struct {
	images ImageRecognizer
	logger *zap.Logger
}

func NewTextExtractor(images ImageRecognizer, logger *zap.Logger) *TextExtractor {
	return &TextExtractor{
		images: images,
		logger: logger,
	}
}

// Extract returns the text of a stored file, or "" when nothing could be read.
// Failures are logged, never returned.
func (e *TextExtractor) Extract(ctx context.Context, data []byte, fileName string) (text string) {
	kind := MediaKindFromFilename(fileName)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Text extraction panicked",
				zap.String("file", fileName),
				zap.Any("panic", r),
			)
			text = ""
		}
	}()

	var err error
	switch kind {
	case MediaPDF:
		text, err = e.extractPDF(data, fileName)
	case MediaImage:
		text, err = e.images.RecognizeImage(ctx, data, fileName)
	default:
		e.logger.Warn("Unsupported media kind", zap.String("file", fileName))
		return ""
	}
	if err != nil {
		e.logger.Warn("Text extraction failed",
			zap.String("file", fileName),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		return ""
	}

	e.logger.Info("Text extraction completed",
		zap.String("file", fileName),
		zap.String("kind", kind.String()),
		zap.Int("text_length", len(text)),
	)
	return text
}

// extractPDF concatenates page texts, each followed by a newline.
func (e *TextExtractor) extractPDF(data []byte, fileName string) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		pageText, err := doc.Text(i)
		if err != nil {
			e.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", fileName),
				zap.Error(err),
			)
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
