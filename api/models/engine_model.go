package models

import (
	"sync"

	"github.com/moyoez/cutqueue/pipeline"
)

// URLBuilder derives retrieval locations on the processing service.
type URLBuilder interface {
	Backend() string
	BatchDownloadURL(serverURL string, processedIDs []string) (string, error)
	ItemDownloadURL(serverURL, serverID, variant string) (string, error)
}

var (
	engineMu   sync.RWMutex
	engine     *pipeline.Engine
	urlBuilder URLBuilder
	// DefaultPreviewFolder is where intake previews are written, "" uses the OS temp dir.
	DefaultPreviewFolder = ""
)

// SetEngine sets the engine the local API drives.
func SetEngine(e *pipeline.Engine) {
	engineMu.Lock()
	defer engineMu.Unlock()
	engine = e
}

// GetEngine returns the engine, or nil before startup finished.
func GetEngine() *pipeline.Engine {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return engine
}

func SetURLBuilder(b URLBuilder) {
	engineMu.Lock()
	defer engineMu.Unlock()
	urlBuilder = b
}

func GetURLBuilder() URLBuilder {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return urlBuilder
}

// SetDefaultPreviewFolder sets where intake previews are written (used by main for config override).
func SetDefaultPreviewFolder(folder string) {
	engineMu.Lock()
	defer engineMu.Unlock()
	DefaultPreviewFolder = folder
}

func GetDefaultPreviewFolder() string {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return DefaultPreviewFolder
}
