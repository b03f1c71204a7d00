package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"

	"github.com/ignatzorin/cryptopay-backend/internal/pkg/apperror"
)

// sniffLen — сколько байт читается для определения типа файла.
const sniffLen = 512

// Разрешённые MIME типы скриншотов и их расширения.
var allowedImages = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Screenshot — сохранённый скриншот пополнения.
type Screenshot struct {
	Path string
	URL  string
	Size int64
	Mime string
}

// ScreenshotStorage хранит скриншоты пополнений на диске.
type ScreenshotStorage struct {
	rootPath       string
	publicBaseURL  string
	maxUploadBytes int64
}

// NewScreenshotStorage создаёт файловое хранилище.
func NewScreenshotStorage(rootPath, publicBaseURL string, maxUploadMB int64) (*ScreenshotStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}

	return &ScreenshotStorage{
		rootPath:       rootPath,
		publicBaseURL:  strings.TrimRight(publicBaseURL, "/"),
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

func (s *ScreenshotStorage) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Save проверяет содержимое по магическим байтам и сохраняет файл в каталог пользователя.
// Имя файла генерируется, расширение берётся из реального типа.
func (s *ScreenshotStorage) Save(ctx context.Context, userID uuid.UUID, r io.Reader) (*Screenshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]
	if n == 0 {
		return nil, apperror.FieldError("file", "файл не может быть пустым")
	}

	mime, ext, err := SniffImage(head)
	if err != nil {
		return nil, err
	}

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	fileName := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, apperror.FieldError("file", fmt.Sprintf("размер файла превышает лимит %d байт", s.maxUploadBytes))
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	relative := path.Join(userID.String(), fileName)
	return &Screenshot{
		Path: relative,
		URL:  s.publicBaseURL + "/" + relative,
		Size: written,
		Mime: mime,
	}, nil
}

// Delete удаляет файл из хранилища.
func (s *ScreenshotStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	clean := filepath.Clean("/" + relativePath)
	target := filepath.Join(s.rootPath, clean)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// SniffImage определяет тип изображения по магическим байтам.
func SniffImage(head []byte) (mime, ext string, err error) {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return "", "", apperror.FieldError("file", "не удалось определить тип файла, разрешены только изображения")
	}

	ext, ok := allowedImages[kind.MIME.Value]
	if !ok {
		return "", "", apperror.FieldError("file", fmt.Sprintf("неподдерживаемый тип файла (%s)", kind.MIME.Value))
	}
	return kind.MIME.Value, ext, nil
}
