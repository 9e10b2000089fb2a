package dto

import (
	"mime/multipart"
	"time"
)

// FileMetadata overrides what is derived from an uploaded part. Entries are
// matched to files by position.
type FileMetadata struct {
	S3Key    *string `json:"s3_key" validate:"omitempty,min=3,max=1024"`
	FileName string  `json:"file_name" validate:"required,min=1,max=255"`
	MimeType *string `json:"mime_type" validate:"omitempty,max=255"`
	FileSize *int64  `json:"file_size" validate:"omitempty,min=1"`
}

type UploadChatbotFilesRequest struct {
	Files            []*multipart.FileHeader `json:"files" validate:"required,min=1"`
	MetadataForFiles []FileMetadata          `json:"metadata_for_files" validate:"omitempty,dive"`
}

type ChatbotFileResponse struct {
	Id        int64      `json:"id"`
	ChatbotId int64      `json:"chatbot_id"`
	S3Key     string     `json:"s3_key"`
	FileName  string     `json:"file_name"`
	MimeType  *string    `json:"mime_type"`
	FileSize  *int64     `json:"file_size"`
	CreatedAt time.Time  `json:"created_at"`
	IndexedAt *time.Time `json:"indexed_at"`
}

type FileAttachmentResponse struct {
	Id        int64     `json:"id"`
	S3Key     string    `json:"s3_key"`
	FileName  string    `json:"file_name"`
	MimeType  *string   `json:"mime_type"`
	FileSize  *int64    `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

type DownloadURLResponse struct {
	FileId      int64     `json:"file_id"`
	DownloadUrl string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IndexChatbotFileMessage is the payload of a background indexing job.
type IndexChatbotFileMessage struct {
	ChatbotFileId int64  `json:"chatbot_file_id"`
	ChatbotId     int64  `json:"chatbot_id"`
	FileName      string `json:"file_name"`
	Content       []byte `json:"content"`
}
