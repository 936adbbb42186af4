package record

import "sort"

// Series is one ordered bucket of records sharing a series key.
type Series struct {
	Key         string     `json:"key"`
	Number      int        `json:"number"`
	Description string     `json:"description"`
	Modality    string     `json:"modality"`
	Video       bool       `json:"video"`
	Records     []Metadata `json:"records"`
}

// Grouper buckets record metadata by series key. Buckets are created on
// first sight and listed in arrival order; each bucket is sorted by
// instance number when Series is called. A Grouper covers exactly one
// ingestion run; the next run starts from a fresh Grouper.
type Grouper struct {
	order   []string
	buckets map[string]*Series
	total   int
}

// NewGrouper returns an empty Grouper.
func NewGrouper() *Grouper {
	return &Grouper{buckets: make(map[string]*Series)}
}

// Add appends one record to its series bucket, creating the bucket on
// first sight of the key.
func (g *Grouper) Add(m Metadata) {
	key := m.SeriesKey()
	b, ok := g.buckets[key]
	if !ok {
		b = &Series{
			Key:         key,
			Number:      m.SeriesNumber,
			Description: m.SeriesDescription,
			Modality:    m.Modality,
			Video:       m.Video,
		}
		g.buckets[key] = b
		g.order = append(g.order, key)
	}
	b.Records = append(b.Records, m)
	g.total++
}

// Len returns the total number of records across all buckets.
func (g *Grouper) Len() int {
	return g.total
}

// Series sorts every bucket ascending by instance number (stable, so
// equal instance numbers keep arrival order) and returns the buckets in
// first-seen key order.
func (g *Grouper) Series() []Series {
	out := make([]Series, 0, len(g.order))
	for _, key := range g.order {
		b := g.buckets[key]
		sort.SliceStable(b.Records, func(i, j int) bool {
			return b.Records[i].InstanceNumber < b.Records[j].InstanceNumber
		})
		out = append(out, *b)
	}
	return out
}

// Organize is the one-shot form of Grouper for callers that already hold
// the full metadata list.
func Organize(metas []Metadata) []Series {
	g := NewGrouper()
	for _, m := range metas {
		g.Add(m)
	}
	return g.Series()
}
