package service_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/maigenai/fingenius/internal/service"

	"github.com/gen2brain/go-fitz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubRecognizer struct {
	text  string
	err   error
	calls int
	panic bool
}

func (s *stubRecognizer) RecognizeImage(ctx context.Context, image []byte, fileName string) (string, error) {
	s.calls++
	if s.panic {
		panic("decoder crashed")
	}
	return s.text, s.err
}

func TestMediaKindFromFilename(t *testing.T) {
	tests := map[string]service.MediaKind{
		"statement.PDF": service.MediaPDF,
		"scan.png":      service.MediaImage,
		"photo.JPG":     service.MediaImage,
		"photo.jpeg":    service.MediaImage,
		"notes.txt":     service.MediaUnsupported,
		"noext":         service.MediaUnsupported,
	}
	for name, want := range tests {
		assert.Equal(t, want, service.MediaKindFromFilename(name), name)
	}
}

func TestTextExtractorImageBranch(t *testing.T) {
	rec := &stubRecognizer{text: "TOTAL 12.00"}
	e := service.NewTextExtractor(rec, zap.NewNop())

	assert.Equal(t, "TOTAL 12.00", e.Extract(context.Background(), []byte("img"), "scan.png"))
	assert.Equal(t, 1, rec.calls)
}

func TestTextExtractorNeverFails(t *testing.T) {
	tests := []struct {
		name string
		rec  *stubRecognizer
		file string
		data []byte
	}{
		{name: "recognizer error", rec: &stubRecognizer{err: errors.New("bad image")}, file: "a.jpg"},
		{name: "recognizer panic", rec: &stubRecognizer{panic: true}, file: "a.jpg"},
		{name: "unsupported kind", rec: &stubRecognizer{text: "x"}, file: "a.docx"},
		{name: "corrupt pdf", rec: &stubRecognizer{}, file: "a.pdf", data: []byte("not a pdf")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := service.NewTextExtractor(tt.rec, zap.NewNop())
			assert.Equal(t, "", e.Extract(context.Background(), tt.data, tt.file))
		})
	}
}

func TestTextExtractorPDFPages(t *testing.T) {
	data, err := os.ReadFile("testdata/statement_two_pages.pdf")
	require.NoError(t, err)

	doc, err := fitz.NewFromMemory(data)
	require.NoError(t, err)
	defer doc.Close()
	require.Equal(t, 2, doc.NumPage())

	var want strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		page, err := doc.Text(i)
		require.NoError(t, err)
		want.WriteString(page + "\n")
	}

	rec := &stubRecognizer{text: "unused"}
	e := service.NewTextExtractor(rec, zap.NewNop())
	got := e.Extract(context.Background(), data, "statement.PDF")

	assert.Equal(t, want.String(), got)
	assert.Zero(t, rec.calls)

	first := strings.Index(got, "Opening balance 1500.00")
	second := strings.Index(got, "Closing balance 1320.75")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	assert.Less(t, first, second)
	assert.True(t, strings.HasSuffix(got, "\n"))
}
