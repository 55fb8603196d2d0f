// Package scaffold creates page boilerplate inside a project tree.
package scaffold

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*
var templatesFS embed.FS

const pageTemplate = "page.svelte.tmpl"

var (
	// ErrInvalidName is returned when a page name is empty after normalization
	// or points outside the pages directory.
	ErrInvalidName = errors.New("invalid page name")
	// ErrPageExists is returned when the page file is already there
	ErrPageExists = errors.New("page already exists")
)

// strips leading "./" markers, any "/file.ext" segment and a trailing "/"
var nameCleaner = regexp.MustCompile(`^\.*/|/?[^/]+\.[a-z]+|/$`)

// Options configures AddPage
type Options struct {
	PagesDir  string
	PageFile  string
	Overwrite bool
	Loader    *TemplateLoader
}

// Option is a functional option for AddPage
type Option func(*Options)

// WithPagesDir sets the pages directory relative to the project root
func WithPagesDir(dir string) Option {
	return func(o *Options) {
		o.PagesDir = dir
	}
}

// WithPageFile sets the file name created inside the page directory
func WithPageFile(name string) Option {
	return func(o *Options) {
		o.PageFile = name
	}
}

// WithOverwrite replaces an existing page file
func WithOverwrite() Option {
	return func(o *Options) {
		o.Overwrite = true
	}
}

// WithLoader sets the template loader
func WithLoader(l *TemplateLoader) Option {
	return func(o *Options) {
		o.Loader = l
	}
}

// Page describes a created page
type Page struct {
	Name  string
	Title string
	Dir   string
	File  string
}

type pageData struct {
	Name  string
	Title string
}

// NormalizeName cleans a user supplied page name. It returns ErrInvalidName
// when nothing usable is left.
func NormalizeName(name string) (string, error) {
	cleaned := filepath.ToSlash(strings.TrimSpace(name))
	cleaned = nameCleaner.ReplaceAllString(cleaned, "")
	if cleaned == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	cleaned = path.Clean(cleaned)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") || path.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

// Title turns the last segment of a page name into a display title,
// "user-profile" becomes "User Profile".
func Title(name string) string {
	last := path.Base(name)
	words := strings.FieldsFunc(last, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	return cases.Title(language.English).String(strings.Join(words, " "))
}

// AddPage creates <root>/<pagesDir>/<name>/<pageFile> from the page template
func AddPage(root, name string, opts ...Option) (Page, error) {
	options := Options{
		PagesDir: filepath.Join("src", "pages"),
		PageFile: "index.svelte",
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Loader == nil {
		options.Loader = NewTemplateLoader(root)
	}

	normalized, err := NormalizeName(name)
	if err != nil {
		return Page{}, err
	}

	page := Page{
		Name:  normalized,
		Title: Title(normalized),
		Dir:   filepath.Join(root, options.PagesDir, filepath.FromSlash(normalized)),
	}
	page.File = filepath.Join(page.Dir, options.PageFile)

	if !options.Overwrite {
		if _, err := os.Stat(page.File); err == nil {
			return Page{}, fmt.Errorf("%w: %s", ErrPageExists, page.File)
		}
	}

	tmplText, err := options.Loader.Load(pageTemplate)
	if err != nil {
		return Page{}, fmt.Errorf("failed to read page template: %w", err)
	}

	content, err := render(string(tmplText), pageData{Name: page.Name, Title: page.Title})
	if err != nil {
		return Page{}, err
	}

	if err := os.MkdirAll(page.Dir, 0755); err != nil {
		return Page{}, fmt.Errorf("failed to create page directory: %w", err)
	}
	if err := os.WriteFile(page.File, content, 0644); err != nil {
		return Page{}, fmt.Errorf("failed to write page: %w", err)
	}

	return page, nil
}

// page templates contain svelte braces, so actions use [[ ]]
func render(text string, data pageData) ([]byte, error) {
	tmpl, err := template.New("page").Delims("[[", "]]").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute page template: %w", err)
	}
	return buf.Bytes(), nil
}
