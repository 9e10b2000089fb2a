package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/repository/contract"
	"chatbots-be/internal/repository/memory"

	"github.com/google/uuid"
)

const (
	fileKindMessage = "message"
	fileKindChatbot = "chatbot"
)

type IFileService interface {
	DownloadURL(ctx context.Context, fileId int64) (*dto.DownloadURLResponse, error)
}

type fileService struct {
	store      contract.EntityStore
	urls       *memory.DownloadURLRepository
	bucketHost string
	lifetime   time.Duration
	now        func() time.Time
}

func NewFileService(
	store contract.EntityStore,
	urls *memory.DownloadURLRepository,
	bucketHost string,
	lifetime time.Duration,
) IFileService {
	return &fileService{
		store:      store,
		urls:       urls,
		bucketHost: strings.TrimSuffix(bucketHost, "/"),
		lifetime:   lifetime,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// DownloadURL issues a time-limited URL for a message attachment or, when no
// attachment has that id, a chatbot file.
func (s *fileService) DownloadURL(ctx context.Context, fileId int64) (*dto.DownloadURLResponse, error) {
	kind, key, err := s.resolve(fileId)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("%d:%s", fileId, key)
	if cached, ok := s.urls.Get(kind, cacheKey); ok {
		return &dto.DownloadURLResponse{FileId: fileId, DownloadUrl: cached.URL, ExpiresAt: cached.ExpiresAt}, nil
	}

	signed := s.sign(key)
	s.urls.Save(kind, cacheKey, signed)
	return &dto.DownloadURLResponse{FileId: fileId, DownloadUrl: signed.URL, ExpiresAt: signed.ExpiresAt}, nil
}

func (s *fileService) resolve(fileId int64) (string, string, error) {
	att, err := s.store.GetFileAttachment(fileId)
	if err == nil {
		return fileKindMessage, att.S3Key, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return "", "", err
	}

	file, err := s.store.GetChatbotFile(fileId)
	if err == nil {
		return fileKindChatbot, file.S3Key, nil
	}
	if errors.Is(err, apperror.ErrNotFound) {
		return "", "", apperror.NotFound("File %d not found", fileId)
	}
	return "", "", err
}

// sign builds a simulated presigned object URL.
func (s *fileService) sign(key string) memory.DownloadURL {
	expiresAt := s.now().Add(s.lifetime).Truncate(time.Second)
	signature := strings.ReplaceAll(uuid.NewString(), "-", "")
	return memory.DownloadURL{
		URL: fmt.Sprintf("https://%s/%s?signature=%s&expires=%d",
			s.bucketHost, url.PathEscape(key), signature, expiresAt.Unix()),
		ExpiresAt: expiresAt,
	}
}
