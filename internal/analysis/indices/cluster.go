package indices

import (
	"sort"
	"time"

	"agrotech/diagnosis/internal/analysis/raster"
)

// degradedThresholdStep how much the low threshold tightens when the
// time budget is exceeded (fewer candidate pixels, coarser result)
const degradedThresholdStep = 0.05

// Cluster one 8-connected component of low-value parcel pixels
type Cluster struct {
	MinCol, MinRow int
	MaxCol, MaxRow int
	PixelCount     int
	AreaHa         float64
	CentroidCol    float64
	CentroidRow    float64
	MedianValue    float64
	Pixels         []int // flat indexes, scan order
}

// FindLowClusters labels 8-connected components of pixels below
// lowThreshold, drops components under minClusterHa, and returns them
// ordered by (MinRow, MinCol). When labelling exceeds the budget the
// scan restarts once with a tightened threshold and degraded=true.
func FindLowClusters(
	comp *raster.Masked,
	lowThreshold, minClusterHa float64,
	budget time.Duration,
) ([]Cluster, bool) {
	start := time.Now()
	clusters, done := label(comp, lowThreshold, minClusterHa, start, budget)
	if done {
		return clusters, false
	}
	clusters, _ = label(comp, lowThreshold-degradedThresholdStep, minClusterHa, time.Now(), budget)
	return clusters, true
}

func label(
	comp *raster.Masked,
	threshold, minClusterHa float64,
	start time.Time,
	budget time.Duration,
) ([]Cluster, bool) {
	w, h := comp.Width, comp.Height
	low := make([]bool, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := row*w + col
			if comp.Inside[i] && comp.Valid(col, row) && comp.At(col, row) < threshold {
				low[i] = true
			}
		}
	}

	visited := make([]bool, w*h)
	var clusters []Cluster
	queue := make([]int, 0, 256)

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			seed := row*w + col
			if !low[seed] || visited[seed] {
				continue
			}
			if budget > 0 && time.Since(start) > budget {
				return nil, false
			}

			c := Cluster{MinCol: col, MinRow: row, MaxCol: col, MaxRow: row}
			queue = queue[:0]
			queue = append(queue, seed)
			visited[seed] = true

			for len(queue) > 0 {
				i := queue[0]
				queue = queue[1:]
				c.Pixels = append(c.Pixels, i)

				pc, pr := i%w, i/w
				if pc < c.MinCol {
					c.MinCol = pc
				}
				if pc > c.MaxCol {
					c.MaxCol = pc
				}
				if pr < c.MinRow {
					c.MinRow = pr
				}
				if pr > c.MaxRow {
					c.MaxRow = pr
				}

				for dr := -1; dr <= 1; dr++ {
					for dc := -1; dc <= 1; dc++ {
						if dr == 0 && dc == 0 {
							continue
						}
						nc, nr := pc+dc, pr+dr
						if nc < 0 || nr < 0 || nc >= w || nr >= h {
							continue
						}
						ni := nr*w + nc
						if low[ni] && !visited[ni] {
							visited[ni] = true
							queue = append(queue, ni)
						}
					}
				}
			}

			c.PixelCount = len(c.Pixels)
			sort.Ints(c.Pixels)
			finish(&c, comp)
			if c.AreaHa >= minClusterHa {
				clusters = append(clusters, c)
			}
		}
	}

	sort.Slice(clusters, func(a, b int) bool {
		if clusters[a].MinRow != clusters[b].MinRow {
			return clusters[a].MinRow < clusters[b].MinRow
		}
		return clusters[a].MinCol < clusters[b].MinCol
	})
	return clusters, true
}

// finish computes centroid, area and median for a labelled component
func finish(c *Cluster, comp *raster.Masked) {
	w := comp.Width
	sumCol, sumRow := 0.0, 0.0
	values := make([]float64, 0, len(c.Pixels))
	for _, i := range c.Pixels {
		sumCol += float64(i % w)
		sumRow += float64(i / w)
		values = append(values, comp.Data[i])
	}
	n := float64(len(c.Pixels))
	c.CentroidCol = sumCol / n
	c.CentroidRow = sumRow / n
	c.MedianValue = median(values)

	_, lat := comp.Transform.PixelCenter(int(c.CentroidCol), int(c.CentroidRow))
	c.AreaHa = n * comp.Transform.PixelAreaHa(lat)
}
