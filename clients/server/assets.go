// assets.go — In-memory store for uploaded images.
package server

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"image"
	"sort"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // register WebP with image.Decode
)

type asset struct {
	Name  string
	Data  []byte
	Mime  string
	Image image.Image // decoded once at upload
}

type assetManager struct {
	mu     sync.RWMutex
	assets map[string]*asset
}

func newAssetManager() *assetManager {
	return &assetManager{assets: make(map[string]*asset)}
}

// add decodes data as an image and stores it under a fresh id.
func (am *assetManager) add(name string, data []byte, mimeType string) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	id := randomID()
	am.mu.Lock()
	am.assets[id] = &asset{Name: name, Data: data, Mime: mimeType, Image: img}
	am.mu.Unlock()
	return id, nil
}

func (am *assetManager) get(id string) (*asset, bool) {
	am.mu.RLock()
	a, ok := am.assets[id]
	am.mu.RUnlock()
	return a, ok
}

// image returns the decoded image for id, or nil.
func (am *assetManager) image(id string) image.Image {
	if a, ok := am.get(id); ok {
		return a.Image
	}
	return nil
}

type assetInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mime   string `json:"mime"`
	Size   int    `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	URL    string `json:"url"`
}

func (am *assetManager) info(id string, a *asset) assetInfo {
	b := a.Image.Bounds()
	return assetInfo{
		ID:     id,
		Name:   a.Name,
		Mime:   a.Mime,
		Size:   len(a.Data),
		Width:  b.Dx(),
		Height: b.Dy(),
		URL:    "/api/assets/" + id,
	}
}

func (am *assetManager) listAll() []assetInfo {
	am.mu.RLock()
	defer am.mu.RUnlock()
	result := make([]assetInfo, 0, len(am.assets))
	for id, a := range am.assets {
		result = append(result, am.info(id, a))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (am *assetManager) remove(id string) bool {
	am.mu.Lock()
	defer am.mu.Unlock()
	_, ok := am.assets[id]
	delete(am.assets, id)
	return ok
}

func randomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
