package dedupe

import (
	"sort"

	"github.com/AirswitchAsa/media-tool/internal/scan"
)

// GroupNear clusters visually similar images: files whose perceptual
// hashes are within maxDistance bits of each other, chained so a burst of
// slightly drifting shots still lands in one group. Files without a
// perceptual hash never participate.
func GroupNear(records []scan.Record, maxDistance int) []Group {
	var idx []int
	tree := &bkTree{}
	for i, r := range records {
		if r.Err != nil || !r.HasPHash {
			continue
		}
		tree.insert(r.PHash, i)
		idx = append(idx, i)
	}

	visited := make(map[int]bool, len(idx))
	var groups []Group

	for _, start := range idx {
		if visited[start] {
			continue
		}

		// breadth-first expansion gives single-linkage clusters
		cluster := []int{start}
		visited[start] = true
		for q := 0; q < len(cluster); q++ {
			for _, hit := range tree.within(records[cluster[q]].PHash, maxDistance) {
				if !visited[hit] {
					visited[hit] = true
					cluster = append(cluster, hit)
				}
			}
		}
		if len(cluster) < 2 {
			continue
		}

		g := Group{Files: make([]scan.Record, 0, len(cluster))}
		for _, i := range cluster {
			g.Files = append(g.Files, records[i])
		}
		sort.Slice(g.Files, func(i, j int) bool { return g.Files[i].Path < g.Files[j].Path })

		for i := 0; i < len(g.Files); i++ {
			for j := i + 1; j < len(g.Files); j++ {
				if d := hamming(g.Files[i].PHash, g.Files[j].PHash); d > g.MaxDistance {
					g.MaxDistance = d
				}
			}
		}
		groups = append(groups, g)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Files[0].Path < groups[j].Files[0].Path })
	return groups
}
