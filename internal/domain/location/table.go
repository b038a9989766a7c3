package location

// Table holds static knowledge about named pickup/dropoff areas: which
// region they belong to, which narrower district groups they share, and
// which areas are considered adjacent. It is immutable after construction
// and safe for concurrent reads.
type Table struct {
	regions   map[string]string            // area -> "mainland" / "island"
	districts map[string][]string          // district group -> member areas
	adjacent  map[string]map[string]bool   // area -> adjacent areas
}

// NewTable builds a Table from raw grouping data. The broad regions map each
// area to its region tag; districts are narrower overlapping groups; adjacent
// lists are treated as symmetric.
func NewTable(regions map[string][]string, districts map[string][]string, adjacent map[string][]string) *Table {
	t := &Table{
		regions:   make(map[string]string),
		districts: districts,
		adjacent:  make(map[string]map[string]bool),
	}
	for region, areas := range regions {
		for _, a := range areas {
			t.regions[a] = region
		}
	}
	for area, neighbours := range adjacent {
		for _, n := range neighbours {
			t.addAdjacent(area, n)
			t.addAdjacent(n, area)
		}
	}
	return t
}

func (t *Table) addAdjacent(a, b string) {
	if t.adjacent[a] == nil {
		t.adjacent[a] = make(map[string]bool)
	}
	t.adjacent[a][b] = true
}

// Known reports whether the area appears in the reference data.
func (t *Table) Known(area string) bool {
	_, ok := t.regions[area]
	return ok
}

// SameDistrict reports whether two areas share a narrow district group.
func (t *Table) SameDistrict(a, b string) bool {
	if a == b {
		return true
	}
	for _, members := range t.districts {
		foundA, foundB := false, false
		for _, m := range members {
			if m == a {
				foundA = true
			}
			if m == b {
				foundB = true
			}
		}
		if foundA && foundB {
			return true
		}
	}
	return false
}

// Adjacent reports whether two areas are adjacency-listed (either direction).
func (t *Table) Adjacent(a, b string) bool {
	return t.adjacent[a][b]
}

// SameRegion reports whether two areas share a broad region tag. Unknown
// areas never match.
func (t *Table) SameRegion(a, b string) bool {
	ra, ok := t.regions[a]
	if !ok {
		return false
	}
	rb, ok := t.regions[b]
	return ok && ra == rb
}

// DefaultTable returns the Lagos reference data the matcher ships with.
func DefaultTable() *Table {
	return NewTable(
		map[string][]string{
			"mainland": {"Ogba", "Ikeja", "Surulere", "Yaba", "Festac", "Oshodi", "Mushin", "Agege", "Berger", "Ketu"},
			"island":   {"VI", "Lekki", "Ikoyi", "Marina", "CMS", "Obalende", "Ajah"},
		},
		map[string][]string{
			"western_mainland": {"Ogba", "Ikeja", "Agege", "Berger"},
			"eastern_mainland": {"Festac", "Surulere", "Yaba", "Oshodi", "Mushin"},
			"southern_island":  {"VI", "Lekki", "Ajah"},
			"northern_island":  {"Ikoyi", "Marina", "CMS", "Obalende"},
		},
		map[string][]string{
			"Ogba":     {"Ikeja", "Agege", "Berger"},
			"Ikeja":    {"Ogba", "Agege", "Oshodi", "Berger"},
			"Agege":    {"Ogba", "Ikeja"},
			"Berger":   {"Ogba", "Ikeja", "Ketu"},
			"Ketu":     {"Berger", "Ikeja"},
			"Oshodi":   {"Ikeja", "Mushin", "Surulere", "Yaba"},
			"Mushin":   {"Oshodi", "Surulere", "Yaba"},
			"Surulere": {"Oshodi", "Mushin", "Yaba"},
			"Yaba":     {"Surulere", "Oshodi", "Mushin"},
			"Festac":   {"Oshodi"},
			"VI":       {"Lekki", "Ikoyi", "Obalende"},
			"Lekki":    {"VI", "Ikoyi", "Ajah"},
			"Ikoyi":    {"VI", "Lekki", "Obalende", "Marina"},
			"Ajah":     {"Lekki"},
			"Marina":   {"CMS", "Obalende", "Ikoyi"},
			"CMS":      {"Marina", "Obalende"},
			"Obalende": {"Marina", "CMS", "Ikoyi", "VI"},
		},
	)
}
