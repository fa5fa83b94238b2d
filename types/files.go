package types

// FileInfo describes a local file offered for intake.
type FileInfo struct {
	FileName     string `json:"fileName"`
	Size         int64  `json:"size"`
	FileType     string `json:"fileType"`
	LastModified int64  `json:"lastModified"` // unix milliseconds
}
