// PosterStencil — Poster composition and print-ready export.
//
// Usage:
//
//	poster -o <file|dir> --project <path> [options]
//	poster info --project <path>
//	poster presets
//	poster dpi <file>
//	poster serve [--port 8080]
//	poster init
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xob0t/PosterStencil/clients/server"
	"github.com/xob0t/PosterStencil/pkg/density"
	"github.com/xob0t/PosterStencil/pkg/document"
	"github.com/xob0t/PosterStencil/pkg/export"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "info":
		err = runInfo(os.Args[2:])
	case "presets":
		runPresets()
	case "dpi":
		err = runDPI(os.Args[2:])
	case "serve":
		err = server.RunServe(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		// Default: export mode (all flags on root).
		err = run(os.Args[1:])
	}
	if err != nil {
		fatal(err)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("poster", flag.ExitOnError)

	var (
		output      string
		projectPath string
		resolution  string
		format      string
		quality     float64
		dpi         int
		prefix      string
	)

	fs.StringVar(&output, "o", "", "Output file or directory")
	fs.StringVar(&output, "output", "", "Output file or directory")
	fs.StringVar(&projectPath, "project", "", "Path to .gsposter bundle or project JSON")
	fs.StringVar(&resolution, "resolution", "", "Resolution preset (overrides the project)")
	fs.StringVar(&format, "format", "", "png or jpeg (overrides the project)")
	fs.Float64Var(&quality, "quality", 0, "JPEG quality 0.1–1 (overrides the project)")
	fs.IntVar(&dpi, "dpi", 0, "Pixel density 72–600 (overrides the project)")
	fs.StringVar(&prefix, "prefix", "", "Filename prefix (overrides the project)")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}

	if output == "" {
		printUsage()
		return fmt.Errorf("output is required (-o)")
	}
	if projectPath == "" {
		return fmt.Errorf("--project is required")
	}

	project, cleanup, err := document.Load(projectPath)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	defer cleanup()

	for _, w := range document.Validate(project) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	// Flags override the project's export settings.
	settings := project.Export
	if resolution != "" {
		if settings.Resolution, err = export.ParseResolution(resolution); err != nil {
			return err
		}
	}
	if format != "" {
		if settings.Format, err = export.ParseFormat(format); err != nil {
			return err
		}
	} else if ext := trimDot(filepath.Ext(output)); ext != "" {
		if f, err := export.ParseFormat(ext); err == nil {
			settings.Format = f
		}
	}
	if quality != 0 {
		settings.Quality = quality
	}
	if dpi != 0 {
		settings.DPI = dpi
	}
	if prefix != "" {
		settings.Prefix = prefix
	}

	scene, warnings := project.Resolve()
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	fmt.Printf("Rendering project: %s\n", project.Meta.Name)
	res, err := export.New(nil).Export(scene.Base, scene.Layers.Snapshot(), settings)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	target := output
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		target = filepath.Join(output, res.Filename)
	}
	if err := os.WriteFile(target, res.Data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Printf("Done: %s (%dx%d)\n", target, res.Width, res.Height)
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	var projectPath string
	fs.StringVar(&projectPath, "project", "", "Path to .gsposter bundle or project JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if projectPath == "" {
		return fmt.Errorf("--project is required for info command")
	}

	project, cleanup, err := document.Load(projectPath)
	if err != nil {
		return err
	}
	defer cleanup()

	fmt.Print(document.FormatSummary(project))
	for _, w := range document.Validate(project) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return nil
}

func runPresets() {
	for _, r := range export.Resolutions() {
		if w, h, ok := r.Dimensions(); ok {
			fmt.Printf("%-14s %dx%d\n", r, w, h)
		} else {
			fmt.Printf("%-14s base image size\n", r)
		}
	}
}

func runDPI(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("dpi: file argument is required")
	}
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if dpi, ok := density.Read(data); ok {
			fmt.Printf("%s: %d dpi\n", path, dpi)
		} else {
			fmt.Printf("%s: no density information\n", path)
		}
	}
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var projectOut string
	fs.StringVar(&projectOut, "project", "project.json", "Output path for sample project")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(projectOut, document.ExampleJSON(), 0644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}

	fmt.Printf("Created: %s\n", projectOut)
	fmt.Println("Add assets/base.jpg, assets/logo.png and assets/stamp.png next to it, then run:")
	fmt.Printf("    poster -o . --project %s\n", projectOut)
	return nil
}

func trimDot(ext string) string {
	if len(ext) > 0 && ext[0] == '.' {
		return ext[1:]
	}
	return ext
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`PosterStencil — Poster Composition & Print Export (Pure Go)

USAGE:
    poster -o <file|dir> --project <path> [options]
    poster info --project <path>
    poster presets
    poster dpi <file>...
    poster serve [--port 8080]
    poster init [options]

EXPORT:
    --project <path>       .gsposter bundle or standalone project JSON
    -o, --output <path>    Output file, or a directory for <prefix>-<w>x<h>.<ext>
    --resolution <name>    original, social-square, full-hd, 4k-uhd, a4-300dpi
    --format <name>        png or jpeg (default: from -o extension or project)
    --quality <0.1-1>      JPEG quality (ignored for PNG)
    --dpi <72-600>         Pixel density written into the file
    --prefix <name>        Filename prefix when -o is a directory

UI SERVER:
    poster serve [--port 8080]          Start the web editor API

INSPECT:
    poster info --project <path>        Print the project's layers
    poster dpi <file>                   Print the stored pixel density

EXAMPLES:
    poster init
    poster -o . --project project.json
    poster -o poster.jpg --project poster.gsposter --quality 0.85 --dpi 300
    poster -o out/ --project project.json --resolution 4k-uhd --prefix launch
    poster dpi launch-3840x2160.png
`)
}
