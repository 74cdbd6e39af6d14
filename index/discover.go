package index

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/poiesic/evidentia/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// source describes one discovered corpus file.
type source struct {
	path  string // absolute or docs-relative path used to read the file
	rel   string // path relative to the docs root, slash separated
	idKey string // chunk id prefix, the stem unless stems collide
	title string
	year  int
	tags  map[string]string
}

// discover walks root and returns accepted files sorted by relative path.
// maxDocs > 0 keeps only the first maxDocs files.
func discover(root string, exts []string, maxDocs int) ([]source, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot read docs dir %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	accept := make(map[string]bool, len(exts))
	for _, e := range exts {
		accept[strings.ToLower(e)] = true
	}

	var rels []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		if !accept[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rels = append(rels, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.Sort(rels)
	if maxDocs > 0 && len(rels) > maxDocs {
		rels = rels[:maxDocs]
	}

	stems := make(map[string]int, len(rels))
	for _, rel := range rels {
		stems[stemOf(rel)]++
	}

	out := make([]source, 0, len(rels))
	for _, rel := range rels {
		stem := stemOf(rel)
		idKey := stem
		if stems[stem] > 1 {
			idKey = stem + "_" + core.ContentHash(rel)[:8]
		}
		out = append(out, source{
			path:  filepath.Join(root, filepath.FromSlash(rel)),
			rel:   rel,
			idKey: idKey,
			title: titleFromStem(stem),
			year:  yearFromName(filepath.Base(rel)),
			tags:  tagsFromName(filepath.Base(rel)),
		})
	}
	return out, nil
}

func stemOf(rel string) string {
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// titleFromStem turns "acc_aha-chest_pain" into "Acc Aha Chest Pain".
func titleFromStem(stem string) string {
	s := strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	s = strings.Join(strings.Fields(s), " ")
	return cases.Title(language.English).String(s)
}

// yearFromName returns the first 19xx or 20xx in name, or 0.
func yearFromName(name string) int {
	m := yearPattern.FindString(name)
	if m == "" {
		return 0
	}
	y, _ := strconv.Atoi(m)
	return y
}

func tagsFromName(name string) map[string]string {
	kind := "document"
	if strings.Contains(strings.ToLower(name), "guideline") {
		kind = "guideline"
	}
	return map[string]string{"type": kind}
}

// readText reads a file as UTF-8, dropping invalid byte sequences.
func readText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}
