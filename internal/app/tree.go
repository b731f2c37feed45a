package app

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/disiqueira/gotree/v3"

	"hg-go/internal/hg"
)

// RenderIndexTree draws the directories of a snapshot, each labelled with
// the number of files directly inside it. depth limits the levels shown
// below the root, 0 shows all.
func RenderIndexTree(label string, index *hg.FileIndex, depth int) string {
	files := make(map[string]int)
	dirs := []string{}
	for _, e := range index.Entries {
		switch e.FileType {
		case hg.FileTypeDir:
			dirs = append(dirs, e.Filename)
		case hg.FileTypeFile:
			files[path.Dir(e.Filename)]++
		}
	}
	sort.Strings(dirs)

	root := gotree.New(fmt.Sprintf("%s (%d)", label, files["."]))
	nodes := map[string]gotree.Tree{".": root}

	var node func(dir string) gotree.Tree
	node = func(dir string) gotree.Tree {
		if n, ok := nodes[dir]; ok {
			return n
		}
		n := node(path.Dir(dir)).Add(fmt.Sprintf("%s (%d)", path.Base(dir), files[dir]))
		nodes[dir] = n
		return n
	}

	for _, dir := range dirs {
		if depth > 0 && strings.Count(dir, "/")+1 > depth {
			continue
		}
		node(dir)
	}
	return root.Print()
}

// MediaTypeCounts groups per-extension file counts by media type.
func MediaTypeCounts(stats *hg.IndexStats, typeOf func(ext string) hg.MediaType) map[hg.MediaType]int {
	counts := make(map[hg.MediaType]int)
	for ext, n := range stats.Extensions {
		counts[typeOf(ext)] += n
	}
	return counts
}
