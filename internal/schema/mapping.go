package schema

import "github.com/user/equipment-scraper/internal/entity"

// MapRecord assigns every field of rec a column name. Names are unique
// within the record: when two labels normalize to the same name the later
// one gets "_1", "_2", ... in field order. Names in reserved count as taken
// before the first field is mapped.
//
// The mapping depends only on the record itself, so the same record always
// maps to the same columns regardless of what the table already holds.
func MapRecord(rec *entity.Record, reserved ...string) []entity.FieldColumn {
	if rec == nil {
		return nil
	}
	taken := make(map[string]struct{}, rec.Len()+len(reserved))
	for _, r := range reserved {
		taken[r] = struct{}{}
	}

	out := make([]entity.FieldColumn, 0, rec.Len())
	for _, f := range rec.Fields {
		base := Normalize(f.Name)
		name := base
		for n := 1; ; n++ {
			if _, ok := taken[name]; !ok {
				break
			}
			name = withSuffix(base, n)
		}
		taken[name] = struct{}{}
		out = append(out, entity.FieldColumn{Field: f.Name, Column: name, Value: f.Value})
	}
	return out
}

// Lookup returns the entry mapped to column.
func Lookup(mapped []entity.FieldColumn, column string) (entity.FieldColumn, bool) {
	for _, fc := range mapped {
		if fc.Column == column {
			return fc, true
		}
	}
	return entity.FieldColumn{}, false
}
