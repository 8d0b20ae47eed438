// Package server provides the PosterStencil web editor and HTTP API.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image"
	"io"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/npillmayer/schuko/tracing"
	"github.com/xob0t/PosterStencil/pkg/compose"
	"github.com/xob0t/PosterStencil/pkg/document"
	"github.com/xob0t/PosterStencil/pkg/export"
	"github.com/xob0t/PosterStencil/pkg/poster"
)

//go:embed web/*
var webContent embed.FS

// tracer traces with key 'posterstencil.server'.
func tracer() tracing.Trace {
	return tracing.Select("posterstencil.server")
}

// Default preview side and upload size limit.
const (
	maxPreviewSide = 1280
	uploadLimit    = 50 << 20
)

type exporter interface {
	Export(base image.Image, layers []poster.Layer, s export.Settings) (*export.Result, error)
	Acknowledge()
	Status() export.Status
}

type srv struct {
	assets     *assetManager
	tmpDir     string
	compositor *compose.Compositor
	exporter   exporter
}

func newServer(tmpDir string) *srv {
	c := compose.New()
	return &srv{
		assets:     newAssetManager(),
		tmpDir:     tmpDir,
		compositor: c,
		exporter:   export.New(c),
	}
}

// RunServe starts the web UI server on the given port.
func RunServe(args []string) error {
	fset := flag.NewFlagSet("serve", flag.ExitOnError)
	var (
		port      string
		noBrowser bool
	)
	fset.StringVar(&port, "port", "8080", "Port to listen on")
	fset.StringVar(&port, "p", "8080", "Port to listen on")
	fset.BoolVar(&noBrowser, "no-browser", false, "Do not open a browser window")
	if err := fset.Parse(args); err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "posterstencil-serve-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	mux, err := newServer(tmpDir).routes()
	if err != nil {
		return err
	}

	addr := ":" + port
	fmt.Printf("PosterStencil UI → http://localhost%s\n", addr)
	if !noBrowser {
		go openBrowser("http://localhost" + addr)
	}
	return http.ListenAndServe(addr, mux)
}

func (s *srv) routes() (*http.ServeMux, error) {
	webFS, err := fs.Sub(webContent, "web")
	if err != nil {
		return nil, fmt.Errorf("embed web: %w", err)
	}

	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/preview", s.handlePreview)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("GET /api/export/status", s.handleExportStatus)
	mux.HandleFunc("POST /api/export/gsposter", s.handleExportBundle)
	mux.HandleFunc("POST /api/import/gsposter", s.handleImportBundle)
	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/upload/image", s.handleUploadImage)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)

	// Static files.
	mux.Handle("/", http.FileServer(http.FS(webFS)))
	return mux, nil
}

// ── Scene ──

// sceneRequest is the editor state sent with preview and export calls.
// Base and layer sources are asset ids.
type sceneRequest struct {
	Base     string               `json:"base"`
	Layers   []document.LayerSpec `json:"layers"`
	Selected string               `json:"selected"`
	Width    int                  `json:"width"`  // preview only
	Height   int                  `json:"height"` // preview only
	Export   export.Settings      `json:"export"`
}

func decodeScene(r io.Reader) (*sceneRequest, error) {
	req := sceneRequest{Export: export.DefaultSettings()}
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	req.Export = req.Export.Normalize()
	return &req, nil
}

// scene resolves asset ids to images. Unknown ids leave the layer pending.
func (s *srv) scene(req *sceneRequest) (image.Image, []poster.Layer, error) {
	var stack poster.Stack
	for _, spec := range req.Layers {
		l := spec.Layer()
		if img := s.assets.image(spec.Source); img != nil {
			l = l.WithSource(img)
		}
		var err error
		if stack, err = stack.Add(l); err != nil {
			return nil, nil, err
		}
	}
	return s.assets.image(req.Base), stack.Snapshot(), nil
}

// previewSize returns the requested size, or the base size scaled down to
// maxPreviewSide.
func previewSize(req *sceneRequest, base image.Image) (int, int) {
	if req.Width > 0 && req.Height > 0 {
		return min(req.Width, 4*maxPreviewSide), min(req.Height, 4*maxPreviewSide)
	}
	if base == nil {
		return maxPreviewSide, maxPreviewSide * 9 / 16
	}
	b := base.Bounds()
	w, h := b.Dx(), b.Dy()
	if side := max(w, h); side > maxPreviewSide {
		w = w * maxPreviewSide / side
		h = h * maxPreviewSide / side
	}
	return max(w, 1), max(h, 1)
}

// ── Preview ──

func (s *srv) handlePreview(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScene(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	base, layers, err := s.scene(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	width, height := previewSize(req, base)
	img := s.compositor.Render(base, layers, width, height, compose.Options{Selected: req.Selected})

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		http.Error(w, "encode PNG: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(buf.Bytes())
}

// ── Export ──

func (s *srv) handleExport(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScene(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	base, layers, err := s.scene(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.exporter.Export(base, layers, req.Export)
	switch {
	case errors.Is(err, export.ErrBusy):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case errors.Is(err, export.ErrNoBase):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case err != nil:
		tracer().Errorf("export failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// The result is handed over with this response.
	s.exporter.Acknowledge()

	w.Header().Set("Content-Type", res.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.Filename))
	w.Write(res.Data)
}

func (s *srv) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": s.exporter.Status().String()})
}

func (s *srv) handleExportBundle(w http.ResponseWriter, r *http.Request) {
	req, err := decodeScene(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	project := &document.Project{
		Meta:     document.Meta{Name: "Poster"},
		Base:     s.resolveAssetPath(req.Base),
		Layers:   append([]document.LayerSpec(nil), req.Layers...),
		Export:   req.Export,
		Selected: req.Selected,
	}
	for i := range project.Layers {
		project.Layers[i].Source = s.resolveAssetPath(project.Layers[i].Source)
	}

	var buf bytes.Buffer
	if err := document.WriteBundle(&buf, project); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="poster.gsposter"`)
	w.Write(buf.Bytes())
}

// ── Import ──

func (s *srv) handleImportBundle(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(uploadLimit)
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	tmp := filepath.Join(s.tmpDir, "import_"+randomID()+".gsposter")
	if err := writeFile(tmp, file); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp)

	project, cleanup, err := document.LoadBundle(tmp)
	if err != nil {
		http.Error(w, "invalid bundle: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer cleanup()

	warnings := document.Validate(project)
	imported := make([]assetInfo, 0, len(project.Layers)+1)
	register := func(path string) string {
		if path == "" {
			return ""
		}
		data, err := os.ReadFile(path)
		if err != nil {
			warnings = append(warnings, err.Error())
			return ""
		}
		name := filepath.Base(path)
		id, err := s.assets.add(name, data, mimeFor(name))
		if err != nil {
			warnings = append(warnings, err.Error())
			return ""
		}
		a, _ := s.assets.get(id)
		imported = append(imported, s.assets.info(id, a))
		return id
	}

	project.Base = register(project.Base)
	for i := range project.Layers {
		project.Layers[i].Source = register(project.Layers[i].Source)
	}

	writeJSON(w, map[string]any{
		"project":  project,
		"assets":   imported,
		"warnings": warnings,
	})
}

// ── Presets ──

func (s *srv) handlePresets(w http.ResponseWriter, r *http.Request) {
	type preset struct {
		Name   string `json:"name"`
		Width  int    `json:"width,omitempty"`
		Height int    `json:"height,omitempty"`
	}
	var result []preset
	for _, res := range export.Resolutions() {
		wd, ht, _ := res.Dimensions()
		result = append(result, preset{Name: res.String(), Width: wd, Height: ht})
	}
	writeJSON(w, result)
}

// ── Upload ──

func (s *srv) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	r.ParseMultipartForm(uploadLimit)
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id, err := s.assets.add(header.Filename, data, mimeFor(header.Filename))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnsupportedMediaType)
		return
	}
	a, _ := s.assets.get(id)
	tracer().Debugf("uploaded %s as %s", header.Filename, id)
	writeJSON(w, s.assets.info(id, a))
}

// ── Asset serving ──

func (s *srv) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets.get(r.PathValue("id"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.Mime)
	w.Write(a.Data)
}

func (s *srv) handleListAssets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.assets.listAll())
}

func (s *srv) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.assets.remove(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]string{"status": "deleted", "id": id})
}

// ── Helpers ──

// resolveAssetPath writes the asset with the given id into tmpDir and
// returns the file path. Ids that are not assets are returned unchanged.
func (s *srv) resolveAssetPath(id string) string {
	if id == "" {
		return ""
	}
	a, ok := s.assets.get(id)
	if !ok {
		return id
	}
	tmpPath := filepath.Join(s.tmpDir, id+"_"+sanitizeFilename(a.Name))
	if err := os.WriteFile(tmpPath, a.Data, 0644); err != nil {
		tracer().Errorf("write asset %s: %v", id, err)
	}
	return tmpPath
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

func mimeFor(name string) string {
	if m := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); m != "" {
		return m
	}
	return "application/octet-stream"
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, " ", "_")
	return name
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Start()
}
