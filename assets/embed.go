// Package assets embeds the service's SQL migrations and seed puzzles.
package assets

import (
	"embed"
	"io/fs"
	"path"
	"sort"
)

//go:embed sql/*.sql seed/*.json
var FS embed.FS

// Migrations returns the migration scripts rooted at "sql".
func Migrations() fs.FS {
	sub, err := fs.Sub(FS, "sql")
	if err != nil {
		// the directory is embedded above
		panic(err)
	}
	return sub
}

// SeedDocuments returns the raw seed puzzle documents keyed by file stem,
// which doubles as the game code.
func SeedDocuments() (map[string][]byte, error) {
	entries, err := fs.ReadDir(FS, "seed")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make(map[string][]byte, len(names))
	for _, name := range names {
		b, err := FS.ReadFile(path.Join("seed", name))
		if err != nil {
			return nil, err
		}
		out[name[:len(name)-len(path.Ext(name))]] = b
	}
	return out, nil
}
