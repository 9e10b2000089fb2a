package service

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"slices"

	"chatbots-be/internal/dto"
	"chatbots-be/internal/entity"
	"chatbots-be/internal/mapper"
	"chatbots-be/internal/pkg/apperror"
	"chatbots-be/internal/pkg/logger"
	"chatbots-be/internal/repository/contract"

	"github.com/google/uuid"
)

const defaultMimeType = "application/octet-stream"

type IChatbotFileService interface {
	List(ctx context.Context, chatbotId int64) ([]*dto.ChatbotFileResponse, error)
	Upload(ctx context.Context, chatbotId int64, req *dto.UploadChatbotFilesRequest) ([]*dto.ChatbotFileResponse, error)
	Delete(ctx context.Context, chatbotId int64, fileId int64) error
}

type chatbotFileService struct {
	store     contract.EntityStore
	publisher IPublisherService
	events    IDomainEventPublisher
	mapper    *mapper.ChatbotMapper
	logger    logger.ILogger
}

func NewChatbotFileService(
	store contract.EntityStore,
	publisher IPublisherService,
	events IDomainEventPublisher,
	logger logger.ILogger,
) IChatbotFileService {
	return &chatbotFileService{
		store:     store,
		publisher: publisher,
		events:    events,
		mapper:    mapper.NewChatbotMapper(),
		logger:    logger,
	}
}

// List returns the chatbot's files, newest first.
func (s *chatbotFileService) List(ctx context.Context, chatbotId int64) ([]*dto.ChatbotFileResponse, error) {
	files, err := s.store.ListChatbotFilesFor(chatbotId)
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(files, func(a, b *entity.ChatbotFile) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.Id, a.Id)
	})

	res := make([]*dto.ChatbotFileResponse, 0, len(files))
	for _, f := range files {
		res = append(res, s.mapper.FileToResponse(f))
	}
	return res, nil
}

func (s *chatbotFileService) Upload(ctx context.Context, chatbotId int64, req *dto.UploadChatbotFilesRequest) ([]*dto.ChatbotFileResponse, error) {
	if _, err := s.store.GetChatbot(chatbotId); err != nil {
		return nil, err
	}
	if len(req.Files) == 0 {
		return nil, apperror.ValidationField("files", "At least one file must be provided.")
	}
	if len(req.MetadataForFiles) > 0 && len(req.MetadataForFiles) != len(req.Files) {
		return nil, apperror.ValidationField("metadata_for_files", "Metadata entries must match the number of uploaded files.")
	}

	created := make([]*dto.ChatbotFileResponse, 0, len(req.Files))
	for i, header := range req.Files {
		var meta *dto.FileMetadata
		if i < len(req.MetadataForFiles) {
			meta = &req.MetadataForFiles[i]
		}

		content, err := readUpload(header)
		if err != nil {
			return nil, apperror.Internal(err, "Failed to read uploaded file %s", header.Filename)
		}

		file, err := s.store.AddChatbotFile(newChatbotFile(chatbotId, header, meta))
		if err != nil {
			return nil, err
		}

		s.enqueueIndexing(ctx, file, content)
		s.events.ChatbotFileAdded(ctx, file)
		created = append(created, s.mapper.FileToResponse(file))
	}

	s.logger.Info("ChatbotFileService", "Chatbot files uploaded", map[string]interface{}{
		"chatbot_id": chatbotId,
		"count":      len(created),
	})
	return created, nil
}

func (s *chatbotFileService) enqueueIndexing(ctx context.Context, file *entity.ChatbotFile, content []byte) {
	payload, err := json.Marshal(dto.IndexChatbotFileMessage{
		ChatbotFileId: file.Id,
		ChatbotId:     file.ChatbotId,
		FileName:      file.FileName,
		Content:       content,
	})
	if err == nil {
		err = s.publisher.Publish(ctx, payload)
	}
	if err != nil {
		// The file stays unindexed; it is still attached to conversations.
		s.logger.Error("ChatbotFileService", "Failed to enqueue indexing job", map[string]interface{}{
			"file_id": file.Id,
			"error":   err.Error(),
		})
	}
}

func (s *chatbotFileService) Delete(ctx context.Context, chatbotId int64, fileId int64) error {
	if _, err := s.store.GetChatbot(chatbotId); err != nil {
		return err
	}
	file, err := s.store.GetChatbotFile(fileId)
	if err != nil {
		return err
	}
	if file.ChatbotId != chatbotId {
		return apperror.NotFound("File %d not found for chatbot %d", fileId, chatbotId)
	}

	if err := s.store.DeleteChatbotFile(fileId); err != nil {
		return err
	}
	s.events.ChatbotFileDeleted(ctx, chatbotId, fileId)
	return nil
}

func newChatbotFile(chatbotId int64, header *multipart.FileHeader, meta *dto.FileMetadata) *entity.ChatbotFile {
	name, mimeType, size := uploadDefaults(header, meta)
	key := fmt.Sprintf("chatbots/%d/files/%s", chatbotId, uuid.NewString())
	if meta != nil && meta.S3Key != nil {
		key = *meta.S3Key
	}
	return &entity.ChatbotFile{
		ChatbotId: chatbotId,
		S3Key:     key,
		FileName:  name,
		MimeType:  &mimeType,
		FileSize:  &size,
	}
}

// uploadDefaults picks file name, MIME type and size: metadata first, then
// what the multipart part says.
func uploadDefaults(header *multipart.FileHeader, meta *dto.FileMetadata) (string, string, int64) {
	name := header.Filename
	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	size := header.Size

	if meta != nil {
		if meta.FileName != "" {
			name = meta.FileName
		}
		if meta.MimeType != nil {
			mimeType = *meta.MimeType
		}
		if meta.FileSize != nil {
			size = *meta.FileSize
		}
	}
	return name, mimeType, size
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
