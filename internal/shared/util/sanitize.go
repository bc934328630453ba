package util

import (
	"fmt"
	"strings"
	"time"
)

// SanitizeFileName flattens path separators so a client-supplied name stays a
// single key segment.
func SanitizeFileName(name string) string {
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" || s == "." || s == ".." {
		return "upload"
	}
	return s
}

// ObjectKey builds the storage key for an upload: {owner}/{unixMillis}_{name}.
func ObjectKey(ownerID, fileName string, at time.Time) string {
	return fmt.Sprintf("%s/%d_%s", SanitizeFileName(ownerID), at.UnixMilli(), SanitizeFileName(fileName))
}
