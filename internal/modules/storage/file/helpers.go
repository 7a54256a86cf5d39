package file

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	appcfg "github.com/ecosphere/core/internal/config"
)

const EnvStaticDir = "ECO_STATIC_DIR"

// resolveStaticDir returns the absolute path to the static file directory,
// reading ECO_STATIC_DIR from the environment or falling back to the default.
func resolveStaticDir() string {
	if dir := strings.TrimSpace(os.Getenv(EnvStaticDir)); dir != "" {
		return appcfg.ResolveRuntimePath(dir, "")
	}
	return appcfg.ResolveRuntimePath("", "static")
}

// buildFileName generates a collision-resistant filename that preserves the
// original extension.
func buildFileName(original string) string {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(original)))
	if ext == "" || len(ext) > 10 {
		ext = ".dat"
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:18] + ext
}

// detectContentType sniffs the MIME type from the fallback header, extension,
// or raw payload bytes, in that priority order.
func detectContentType(filename string, payload []byte, fallback string) string {
	contentType := strings.TrimSpace(fallback)
	if contentType != "" {
		return contentType
	}
	if ext := strings.ToLower(filepath.Ext(strings.TrimSpace(filename))); ext != "" {
		if guessed := mime.TypeByExtension(ext); guessed != "" {
			return guessed
		}
	}
	if len(payload) > 0 {
		return http.DetectContentType(payload)
	}
	return "application/octet-stream"
}

// normalizeNamespace lower-cases and validates raw as a safe path segment.
func normalizeNamespace(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || !isSafeSegment(raw) {
		return ""
	}
	return raw
}

// normalizeNamespaceDefault calls normalizeNamespace and falls back to def when empty.
func normalizeNamespaceDefault(raw, def string) string {
	ns := normalizeNamespace(raw)
	if ns != "" {
		return ns
	}
	return normalizeNamespace(def)
}

// safeName returns the base name of raw only when it passes isSafeSegment.
func safeName(raw string) string {
	name := filepath.Base(strings.TrimSpace(raw))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return ""
	}
	if !isSafeSegment(name) {
		return ""
	}
	return name
}

// isSafeSegment returns true when s contains only alphanumerics, hyphens,
// underscores, or dots, and is not a traversal segment.
func isSafeSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			continue
		}
		return false
	}
	return true
}
