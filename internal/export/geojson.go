// Package export renders a loaded package to external formats. The
// formats themselves are thin glue over mature libraries; correctness of
// the underlying tables is the converter's problem.
package export

import (
	"encoding/json"
	"errors"
	"io"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/wegman-software/osmpkg-go/internal/geom"
	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
)

// GeoJSON writes a FeatureCollection: reconstructed ways as line
// features with their tags as properties, plus tagged nodes as points.
func GeoJSON(p *osmpkg.Package, w io.Writer) error {
	fc := geojson.NewFeatureCollection()

	ways, err := geom.Reconstruct(p)
	if err != nil && !errors.Is(err, osmpkg.ErrMissingTable) {
		return err
	}

	wayTags := tagsByOwner(p.WayTags)
	wayIDs := make([]int64, 0, len(ways))
	for id := range ways {
		wayIDs = append(wayIDs, id)
	}
	sort.Slice(wayIDs, func(i, j int) bool { return wayIDs[i] < wayIDs[j] })

	for _, id := range wayIDs {
		f := geojson.NewFeature(ways[id])
		f.Properties["osm_id"] = id
		f.Properties["osm_type"] = "way"
		for k, v := range wayTags[id] {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	nodeTags := tagsByOwner(p.NodeTags)
	for _, n := range p.Nodes {
		tags := nodeTags[n.ID]
		if len(tags) == 0 {
			continue
		}
		f := geojson.NewFeature(orb.Point{n.Lon, n.Lat})
		f.Properties["osm_id"] = n.ID
		f.Properties["osm_type"] = "node"
		for k, v := range tags {
			f.Properties[k] = v
		}
		fc.Append(f)
	}

	return json.NewEncoder(w).Encode(fc)
}

func tagsByOwner(tags []osmpkg.TagRow) map[int64]map[string]string {
	out := make(map[int64]map[string]string)
	for _, t := range tags {
		m := out[t.OwnerID]
		if m == nil {
			m = make(map[string]string)
			out[t.OwnerID] = m
		}
		m[t.Key] = t.Value
	}
	return out
}
