// loader.go — Load project.json files and .gsposter (ZIP) bundles.
package document

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ProjectFile is the name of the project document inside a bundle.
const ProjectFile = "project.json"

// Parse decodes a project document. Relative image paths are resolved
// against dir.
func Parse(data []byte, dir string) (*Project, error) {
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ProjectFile, err)
	}
	p.Export = p.Export.Normalize()
	resolveAssetPaths(&p, dir)
	return &p, nil
}

// ParseFile reads a project document from disk.
func ParseFile(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return Parse(data, filepath.Dir(path))
}

// Load opens either a .gsposter bundle or a plain project file. The
// returned cleanup function is never nil.
func Load(path string) (*Project, func(), error) {
	if strings.EqualFold(filepath.Ext(path), ".gsposter") {
		return LoadBundle(path)
	}
	p, err := ParseFile(path)
	return p, func() {}, err
}

// LoadBundle opens a .gsposter ZIP, extracts it to a temp directory,
// parses project.json and resolves all image paths into the extracted
// tree. The returned cleanup function removes the temp directory.
func LoadBundle(path string) (*Project, func(), error) {
	noop := func() {}

	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, noop, fmt.Errorf("open %s: %w", path, err)
	}
	defer r.Close()

	tmpDir, err := os.MkdirTemp("", "gsposter-*")
	if err != nil {
		return nil, noop, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	if err := extractZip(&r.Reader, tmpDir); err != nil {
		cleanup()
		return nil, noop, fmt.Errorf("extract %s: %w", path, err)
	}

	p, err := ParseFile(filepath.Join(tmpDir, ProjectFile))
	if err != nil {
		cleanup()
		return nil, noop, err
	}
	tracer().Debugf("loaded bundle %s with %d layers", path, len(p.Layers))
	return p, cleanup, nil
}

// WriteBundle stores p and the images it references in a ZIP written to w.
// Image paths are rewritten to assets/<n><ext> inside the bundle.
func WriteBundle(w io.Writer, p *Project) error {
	zw := zip.NewWriter(w)
	out := *p
	out.Layers = append([]LayerSpec(nil), p.Layers...)

	n := 0
	add := func(src string) (string, error) {
		if src == "" {
			return "", nil
		}
		n++
		name := fmt.Sprintf("assets/%d%s", n, strings.ToLower(filepath.Ext(src)))
		if err := copyToZip(zw, name, src); err != nil {
			return "", err
		}
		return name, nil
	}

	var err error
	if out.Base, err = add(p.Base); err != nil {
		return err
	}
	for i := range out.Layers {
		if out.Layers[i].Source, err = add(out.Layers[i].Source); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ProjectFile, err)
	}
	f, err := zw.Create(ProjectFile)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	return zw.Close()
}

// Save writes p as indented JSON.
func Save(path string, p *Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", ProjectFile, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// resolveAssetPaths makes all relative image paths absolute using baseDir.
func resolveAssetPaths(p *Project, baseDir string) {
	resolve := func(s string) string {
		if s == "" || filepath.IsAbs(s) {
			return s
		}
		return filepath.Join(baseDir, filepath.FromSlash(s))
	}
	p.Base = resolve(p.Base)
	for i := range p.Layers {
		p.Layers[i].Source = resolve(p.Layers[i].Source)
	}
}

// extractZip extracts all files from a zip reader into destDir.
func extractZip(r *zip.Reader, destDir string) error {
	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)

		// Guard against zip slip.
		if !strings.HasPrefix(filepath.Clean(target), filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal path in zip: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, rc)
	return err
}

func copyToZip(zw *zip.Writer, name, src string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("bundle %s: %w", src, err)
	}
	defer in.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, in)
	return err
}
