// README: Day cluster aggregate; members are kept in visit order once ordering has run.
package cluster

import (
	"wayfarer/internal/geo"
	"wayfarer/internal/types"
)

type Cluster struct {
	DayNumber int               `json:"dayNumber"`
	Members   []types.Candidate `json:"members"`
	Centroid  types.Point       `json:"centroid"`
	PathKm    float64           `json:"pathKm"`
	RadiusKm  float64           `json:"radiusKm"`
	DayTrip   bool              `json:"dayTrip"`
	Theme     string            `json:"theme,omitempty"`
}

// Refresh recomputes centroid, radius and path length from the current members.
func (c *Cluster) Refresh() {
	pts := validPoints(c.Members)
	c.Centroid, _ = geo.Centroid(pts)
	c.RadiusKm = radiusKm(c.Centroid, pts)
	c.PathKm = geo.PathKm(pts)
}

func (c Cluster) IDs() []types.ID {
	ids := make([]types.ID, len(c.Members))
	for i, m := range c.Members {
		ids[i] = m.ID
	}
	return ids
}

// Clone copies the cluster with its own member slice.
func (c Cluster) Clone() Cluster {
	c.Members = append([]types.Candidate(nil), c.Members...)
	return c
}

// Reorder applies an externally proposed visit order. It is rejected unless
// ids is a permutation of the current members.
func (c *Cluster) Reorder(ids []types.ID) bool {
	if len(ids) != len(c.Members) {
		return false
	}
	byID := make(map[types.ID]types.Candidate, len(c.Members))
	for _, m := range c.Members {
		byID[m.ID] = m
	}
	out := make([]types.Candidate, 0, len(ids))
	for _, id := range ids {
		m, ok := byID[id]
		if !ok {
			return false
		}
		delete(byID, id)
		out = append(out, m)
	}
	c.Members = out
	c.Refresh()
	return true
}

func (c Cluster) indexOf(id types.ID) int {
	for i, m := range c.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Remove drops the member with the given id and refreshes metrics.
func (c *Cluster) Remove(id types.ID) (types.Candidate, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return types.Candidate{}, false
	}
	m := c.Members[i]
	c.Members = append(c.Members[:i:i], c.Members[i+1:]...)
	c.Refresh()
	return m, true
}

func validPoints(members []types.Candidate) []types.Point {
	pts := make([]types.Point, 0, len(members))
	for _, m := range members {
		if p := m.Point(); p.Valid() {
			pts = append(pts, p)
		}
	}
	return pts
}

func radiusKm(center types.Point, pts []types.Point) float64 {
	if !center.Valid() {
		return 0
	}
	r := 0.0
	for _, p := range pts {
		r = max(r, geo.DistanceKm(center, p))
	}
	return r
}
