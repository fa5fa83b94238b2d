package types

// StatusResponse is the JSON shape for GET /api/self/v1/status.
type StatusResponse struct {
	Running          bool   `json:"running"`
	Backend          string `json:"backend"`
	Items            int    `json:"items"`
	Pollable         int    `json:"pollable"`
	PollerRunning    bool   `json:"poller_running"`
	Advisory         string `json:"advisory,omitempty"`
	BatchDownloadUrl string `json:"batch_download_url,omitempty"`
	NotifyWSEnabled  bool   `json:"notify_ws_enabled"`
}
