package httpdto

// PresignUploadRequest is used for POST /api/chat/attachments/presign
type PresignUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
	SizeBytes   int64  `json:"sizeBytes" binding:"required"`
}

// PresignUploadResponse carries the direct-to-bucket upload URL
type PresignUploadResponse struct {
	Key       string            `json:"key"`
	UploadURL string            `json:"uploadUrl"`
	Headers   map[string]string `json:"headers"`
}

// PresignDownloadResponse carries a time-limited download URL
type PresignDownloadResponse struct {
	DownloadURL string `json:"downloadUrl"`
}
