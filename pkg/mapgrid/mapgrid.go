// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package mapgrid projects license coordinates onto a terminal cell grid.
//
// # Description
//
// The browser build delegated projection and marker clustering to a tile
// and clustering library; in the terminal the "map" is a character grid, so
// both are small pure functions here. Records sharing a cell merge into a
// cluster whose glyph shows the member count. Because layout is synchronous
// there is no async clustering animation to race against: a selection can
// be resolved to its cell immediately after Build returns.
//
// # Thread Safety
//
// All functions are pure and safe for concurrent use.
package mapgrid

import (
	"math"

	"github.com/AleutianAI/minedeck/pkg/license"
)

// Default viewport center (Ghana) used before any records arrive.
const (
	DefaultCenterLat = 7.9465
	DefaultCenterLng = -1.0232
)

// Bounds is a geographic bounding box.
type Bounds struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

// padded widens the box slightly so edge markers don't land on the frame.
func (b Bounds) padded() Bounds {
	latPad := (b.MaxLat - b.MinLat) * 0.05
	lngPad := (b.MaxLng - b.MinLng) * 0.05
	if latPad == 0 {
		latPad = 0.5
	}
	if lngPad == 0 {
		lngPad = 0.5
	}
	return Bounds{
		MinLat: b.MinLat - latPad,
		MaxLat: b.MaxLat + latPad,
		MinLng: b.MinLng - lngPad,
		MaxLng: b.MaxLng + lngPad,
	}
}

// FitBounds computes the bounding box of all records with coordinates.
// With no mappable records it returns a box around the default center.
func FitBounds(records []license.Record) Bounds {
	b := Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLng: math.Inf(1), MaxLng: math.Inf(-1),
	}
	found := false
	for _, r := range records {
		if !r.HasCoordinates() {
			continue
		}
		found = true
		b.MinLat = math.Min(b.MinLat, *r.Lat)
		b.MaxLat = math.Max(b.MaxLat, *r.Lat)
		b.MinLng = math.Min(b.MinLng, *r.Lng)
		b.MaxLng = math.Max(b.MaxLng, *r.Lng)
	}
	if !found {
		return Bounds{
			MinLat: DefaultCenterLat - 4, MaxLat: DefaultCenterLat + 4,
			MinLng: DefaultCenterLng - 4, MaxLng: DefaultCenterLng + 4,
		}
	}
	return b
}

// Zoom scales the viewport around its center. Each positive level halves
// the span (zooming in); each negative level doubles it (zooming out).
// Level 0 is the identity.
func (b Bounds) Zoom(level int) Bounds {
	if level == 0 {
		return b
	}
	factor := math.Pow(2, float64(level))
	centerLat := (b.MinLat + b.MaxLat) / 2
	centerLng := (b.MinLng + b.MaxLng) / 2
	halfLat := (b.MaxLat - b.MinLat) / 2 / factor
	halfLng := (b.MaxLng - b.MinLng) / 2 / factor
	return Bounds{
		MinLat: centerLat - halfLat, MaxLat: centerLat + halfLat,
		MinLng: centerLng - halfLng, MaxLng: centerLng + halfLng,
	}
}

// Pan shifts the viewport by a fraction of its span.
func (b Bounds) Pan(dxFrac, dyFrac float64) Bounds {
	dLng := (b.MaxLng - b.MinLng) * dxFrac
	dLat := (b.MaxLat - b.MinLat) * dyFrac
	return Bounds{
		MinLat: b.MinLat + dLat, MaxLat: b.MaxLat + dLat,
		MinLng: b.MinLng + dLng, MaxLng: b.MaxLng + dLng,
	}
}

// Cluster is one rendered grid cell: one or more records sharing a cell.
type Cluster struct {
	// X, Y are grid coordinates; Y grows downward (row 0 is the north edge).
	X, Y int

	// Records are the members, in derived-view order.
	Records []license.Record
}

// Size returns the member count.
func (c Cluster) Size() int {
	return len(c.Records)
}

// Grid is the projected viewport.
type Grid struct {
	Width, Height int
	Bounds        Bounds
	Clusters      []Cluster

	// Dropped counts records excluded for missing coordinates. They stay
	// visible in the list and kanban views.
	Dropped int
}

// Build projects records into a width x height cell grid.
//
// Description:
//
//	Each record with coordinates inside the (padded) bounds maps to one
//	cell; records mapping to the same cell merge into one cluster. At low
//	zoom many records share cells (coarse clustering); zooming in spreads
//	them over more cells until clusters dissolve into single markers.
//
// Inputs:
//
//	records - The derived view, already filtered and ordered.
//	width, height - Grid dimensions in cells. Must be positive.
//	bounds - The viewport. Records outside it are skipped (not Dropped).
//
// Outputs:
//
//	Grid - Clusters in first-seen cell order.
func Build(records []license.Record, width, height int, bounds Bounds) Grid {
	g := Grid{Width: width, Height: height, Bounds: bounds}
	if width <= 0 || height <= 0 {
		return g
	}

	box := bounds.padded()
	latSpan := box.MaxLat - box.MinLat
	lngSpan := box.MaxLng - box.MinLng

	index := make(map[[2]int]int)
	for _, r := range records {
		if !r.HasCoordinates() {
			g.Dropped++
			continue
		}
		lat, lng := *r.Lat, *r.Lng
		if lat < box.MinLat || lat > box.MaxLat || lng < box.MinLng || lng > box.MaxLng {
			continue
		}

		x := int((lng - box.MinLng) / lngSpan * float64(width))
		y := int((box.MaxLat - lat) / latSpan * float64(height))
		if x >= width {
			x = width - 1
		}
		if y >= height {
			y = height - 1
		}

		cell := [2]int{x, y}
		if i, ok := index[cell]; ok {
			g.Clusters[i].Records = append(g.Clusters[i].Records, r)
			continue
		}
		index[cell] = len(g.Clusters)
		g.Clusters = append(g.Clusters, Cluster{X: x, Y: y, Records: []license.Record{r}})
	}
	return g
}

// Find returns the cluster containing the record id, or nil.
func (g Grid) Find(id string) *Cluster {
	for i := range g.Clusters {
		for _, r := range g.Clusters[i].Records {
			if r.ID == id {
				return &g.Clusters[i]
			}
		}
	}
	return nil
}
