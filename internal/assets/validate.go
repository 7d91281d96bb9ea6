// Where: cli/internal/assets/validate.go
// What: Post-download image format checks.
// Why: Catalogs occasionally serve HTML error pages or truncated files
// under image URLs; a bad asset must be dropped, not shipped.
package assets

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// validateImage confirms a downloaded file is a decodable image. SVG files
// are checked for a recognizable document marker; raster formats must be
// accepted by their registered decoder.
func validateImage(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		head := make([]byte, 1024)
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, _ := f.Read(head)
		head = head[:n]
		if !bytes.Contains(head, []byte("<svg")) && !bytes.Contains(head, []byte("<?xml")) {
			return fmt.Errorf("no SVG document marker found")
		}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, _, err := image.DecodeConfig(f); err != nil {
		return fmt.Errorf("undecodable image: %w", err)
	}
	return nil
}
