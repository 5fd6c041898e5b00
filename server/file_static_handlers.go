package server

import (
	"embed"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

const indexFile = "index.html"

//go:embed static/*
var staticFiles embed.FS

func StaticFilesFS() fs.FS {
	subFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("Failed to create sub filesystem: " + err.Error())
	}
	return subFS
}

// serveFileHandler serves embedded assets. Extension-less paths that do not
// match a file are client-side routes and get the application shell.
func (s *Server) serveFileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filePath := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if filePath == "" {
			filePath = indexFile
		}

		err := StreamFile(w, r, filePath)
		if err != nil && path.Ext(filePath) == "" {
			err = StreamFile(w, r, indexFile)
		}
		if err != nil {
			logError(r, filePath, err)
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
	}
}

func StreamFile(w http.ResponseWriter, r *http.Request, fileName string) error {
	data, err := fs.ReadFile(StaticFilesFS(), fileName)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fileName, err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	ctype := mime.TypeByExtension(ext)
	if ctype == "" {
		ctype = http.DetectContentType(data)
	}
	// Ensure UTF-8 for text types when not present
	if strings.HasPrefix(ctype, "text/") && !strings.Contains(strings.ToLower(ctype), "charset=") {
		ctype += "; charset=utf-8"
	}
	w.Header().Set("Content-Type", ctype)
	if r.Method == http.MethodHead {
		return nil
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s content: %w", fileName, err)
	}
	return nil
}

func logError(r *http.Request, path string, err error) {
	paddedMethod := fmt.Sprintf(" %-7s", r.Method)
	displayMethod := Gray + paddedMethod + ResetColor
	if color, ok := methodColors[r.Method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	}
	zerolog.Ctx(r.Context()).Warn().Err(err).Msgf("[%-19s] %s %s", displayMethod, path, Red+"not found"+ResetColor)
}
