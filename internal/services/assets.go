package services

import (
	"path/filepath"
	"strings"
)

// AssetDir is the directory company logos are read from. Logo references on invoices
// are relative to it; an empty AssetDir disables logo images altogether.
type AssetDir string

// Resolve maps a logo reference to a file inside the directory. References that are
// absolute, climb out of the directory or point at a non-image file are rejected.
func (d AssetDir) Resolve(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if d == "" || ref == "" || !isLogoImage(ref) {
		return "", false
	}

	rel := filepath.Clean(filepath.FromSlash(ref))
	if filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" || escapes(rel) {
		return "", false
	}

	root, err := filepath.Abs(string(d))
	if err != nil {
		return "", false
	}
	path := filepath.Join(root, rel)

	// symlinks inside the directory must not lead out of it
	resolvedRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", false
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	inside, err := filepath.Rel(resolvedRoot, resolved)
	if err != nil || escapes(inside) {
		return "", false
	}
	return resolved, true
}

func escapes(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func isLogoImage(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif":
		return true
	}
	return false
}
