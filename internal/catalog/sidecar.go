package catalog

import (
	"hg-go/internal/hg"
	"hg-go/internal/media"
)

// primaryRank orders candidate primaries of a stem group, lower wins.
var primaryRank = map[hg.MediaType]int{
	hg.MediaTypeImage:    0,
	hg.MediaTypeRawImage: 1,
	hg.MediaTypeVideo:    2,
}

// GroupSidecars associates the entries of one directory group by filename
// stem. Each stem group yields one item whose primary is its image, raw image
// or video file, in that order of preference, ties broken by filename order.
// All other files of the group become sidecars. Groups without a primary are
// dropped. Items keep the order of their first file.
func GroupSidecars(group []*hg.CatalogEntry, storageFiles map[string][]string) []*hg.CatalogItem {
	var order []string
	stems := make(map[string][]*hg.CatalogEntry)
	for _, e := range group {
		stem := media.Stem(e.Filename)
		if _, ok := stems[stem]; !ok {
			order = append(order, stem)
		}
		stems[stem] = append(stems[stem], e)
	}

	items := make([]*hg.CatalogItem, 0, len(order))
	for _, stem := range order {
		entries := stems[stem]

		primary := -1
		for i, e := range entries {
			rank, ok := primaryRank[e.Type]
			if !ok {
				continue
			}
			if primary < 0 || rank < primaryRank[entries[primary].Type] {
				primary = i
			}
		}
		if primary < 0 {
			continue
		}

		item := &hg.CatalogItem{Primary: entries[primary]}
		for i, e := range entries {
			if i != primary {
				item.Sidecars = append(item.Sidecars, e)
			}
		}
		item.StorageFiles = storageFiles[item.Primary.Sha1sum]
		items = append(items, item)
	}
	return items
}
