package handler

import (
	"time"

	"ragsearch/internal/search"
)

type uploadResponse struct {
	Message        string   `json:"message"`
	FileID         string   `json:"file_id"`
	FileName       string   `json:"file_name"`
	ProjectName    string   `json:"project_name"`
	SizeKB         float64  `json:"size_kb"`
	Tags           []string `json:"tags"`
	TotalStorageKB float64  `json:"total_storage_kb"`
	Indexed        bool     `json:"indexed"`
}

type fileInfo struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ProjectName string    `json:"project_name"`
	SizeKB      float64   `json:"size_kb"`
	UploadTime  time.Time `json:"upload_time"`
	Tags        []string  `json:"tags"`
	Indexed     bool      `json:"indexed"`
}

type filesResponse struct {
	Files []fileInfo `json:"files"`
	Count int        `json:"count"`
}

type storageResponse struct {
	UserID         string     `json:"user_id"`
	TotalStorageKB float64    `json:"total_storage_kb"`
	LastUpdated    *time.Time `json:"last_updated"`
}

type promptRequest struct {
	Prompt string `json:"prompt" example:"What are the key findings?"`
	// FileIDs restricts the search; absent or empty means every file.
	FileIDs []string `json:"file_ids,omitempty"`
}

type promptResponse struct {
	Response string          `json:"response"`
	Sources  []search.Source `json:"sources"`
	FileIDs  []string        `json:"file_ids"`
}

type whoAmIResponse struct {
	Message         string   `json:"message"`
	UserID          string   `json:"user_id"`
	AvailableFields []string `json:"available_fields"`
}
