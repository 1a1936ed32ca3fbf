package resumes

import (
	"errors"
	"testing"

	"resumeai.app/backend/internal/common"
)

func TestExtractTextPlain(t *testing.T) {
	text, err := ExtractText([]byte("  Иван Иванов\nGolang разработчик  \n"), "text/plain")
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	want := "Иван Иванов\nGolang разработчик"
	if text != want {
		t.Errorf("текст = %q, ожидалось %q", text, want)
	}
}

func TestExtractTextUnsupportedType(t *testing.T) {
	_, err := ExtractText([]byte{0xFF, 0xD8}, "image/jpeg")
	if !errors.Is(err, common.ErrUnsupportedFileType) {
		t.Errorf("ошибка = %v, ожидалась ErrUnsupportedFileType", err)
	}
}

func TestExtractTextBrokenPDF(t *testing.T) {
	_, err := ExtractText([]byte("это не PDF"), "application/pdf")
	if err == nil {
		t.Error("битый PDF должен возвращать ошибку")
	}
}
