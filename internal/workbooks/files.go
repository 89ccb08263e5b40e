package workbooks

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// spreadsheet extensions recognized when enumerating the excel directory.
var listExtensions = map[string]struct{}{
	".xlsx": {},
	".xlsm": {},
	".xltx": {},
	".xltm": {},
}

// FileInfo describes one spreadsheet file available for loading.
type FileInfo struct {
	Name     string    `json:"name"`
	SizeMB   float64   `json:"size_mb"`
	Modified time.Time `json:"modified"`
}

// ListFiles enumerates spreadsheet files in dir, newest first. A missing
// directory yields an empty listing rather than an error so diagnostics can
// report it without failing.
func ListFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if _, ok := listExtensions[ext]; !ok {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     e.Name(),
			SizeMB:   roundMB(st.Size()),
			Modified: st.ModTime(),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].Modified.After(files[j].Modified)
	})
	return files, nil
}
