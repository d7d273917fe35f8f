package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wegman-software/osmpkg-go/internal/osmpkg"
)

// XLSX writes one worksheet per non-empty table. Sheets use the table
// names from the archive format.
func XLSX(p *osmpkg.Package, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	wrote := 0

	if len(p.Nodes) > 0 {
		rows := make([][]any, 0, len(p.Nodes))
		for _, n := range p.Nodes {
			rows = append(rows, []any{n.ID, n.Lon, n.Lat})
		}
		if err := writeSheet(f, "node", []string{"id", "lon", "lat"}, rows); err != nil {
			return err
		}
		wrote++
	}

	if len(p.Ways) > 0 {
		rows := make([][]any, 0, len(p.Ways))
		for _, s := range p.Ways {
			rows = append(rows, []any{s.WayID, s.U, s.V})
		}
		if err := writeSheet(f, "way", []string{"way_id", "u", "v"}, rows); err != nil {
			return err
		}
		wrote++
	}

	if len(p.RelationMembers) > 0 {
		rows := make([][]any, 0, len(p.RelationMembers))
		for _, m := range p.RelationMembers {
			rows = append(rows, []any{m.RelationID, m.Ref, m.Type, m.Role})
		}
		if err := writeSheet(f, "relation", []string{"relation_id", "ref", "type", "role"}, rows); err != nil {
			return err
		}
		wrote++
	}

	for _, t := range []struct {
		name string
		tags []osmpkg.TagRow
	}{
		{"node_tag", p.NodeTags},
		{"way_tag", p.WayTags},
		{"relation_tag", p.RelationTags},
	} {
		if len(t.tags) == 0 {
			continue
		}
		rows := make([][]any, 0, len(t.tags))
		for _, tag := range t.tags {
			rows = append(rows, []any{tag.OwnerID, tag.Key, tag.Value})
		}
		if err := writeSheet(f, t.name, []string{"owner_id", "key", "value"}, rows); err != nil {
			return err
		}
		wrote++
	}

	if wrote == 0 {
		return fmt.Errorf("package has no rows to export")
	}

	// Drop the workbook's default sheet; every written table made its own.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	return f.SaveAs(path)
}

func writeSheet(f *excelize.File, name string, header []string, rows [][]any) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(name)
	if err != nil {
		return err
	}

	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	if err := sw.SetRow("A1", head); err != nil {
		return err
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	return sw.Flush()
}
