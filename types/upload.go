package types

// ProcessRequest is the body of the remote processing call.
type ProcessRequest struct {
	IDs []string `json:"ids"`
}

// UserProcessRequest is the body of POST /api/self/v1/process.
type UserProcessRequest struct {
	IDs         []string `json:"ids"`
	DisplayName string   `json:"displayName,omitempty"`
}

// UserProcessResponse reports the outcome of a processing request.
type UserProcessResponse struct {
	Requested        int    `json:"requested"`
	BatchDownloadUrl string `json:"batchDownloadUrl,omitempty"`
}
