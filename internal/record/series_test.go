package record

import (
	"fmt"
	"strings"
	"testing"
)

func TestSeriesKey(t *testing.T) {
	tests := []struct {
		name string
		meta Metadata
		want string
	}{
		{
			name: "image series",
			meta: Metadata{SeriesNumber: 3, SeriesDescription: "AX T1", Modality: "MR"},
			want: "003 - AX T1 (MR)",
		},
		{
			name: "video series",
			meta: Metadata{SeriesNumber: 12, SeriesDescription: "Cine Loop", Modality: "US", Video: true},
			want: "012 - Cine Loop (US) [video]",
		},
		{
			name: "defaults",
			meta: Metadata{SeriesDescription: "Series", Modality: "Unknown"},
			want: "000 - Series (Unknown)",
		},
		{
			name: "wide series number",
			meta: Metadata{SeriesNumber: 1234, SeriesDescription: "X", Modality: "CT"},
			want: "1234 - X (CT)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.meta.SeriesKey(); got != tt.want {
				t.Errorf("SeriesKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGrouperBucketsByKey(t *testing.T) {
	g := NewGrouper()

	// Two series of five, interleaved out of order.
	for i := 5; i >= 1; i-- {
		g.Add(Metadata{
			Path:              fmt.Sprintf("/a/%d", i),
			SeriesNumber:      1,
			SeriesDescription: "AX T1",
			Modality:          "MR",
			InstanceNumber:    i,
		})
		g.Add(Metadata{
			Path:              fmt.Sprintf("/b/%d", i),
			SeriesNumber:      2,
			SeriesDescription: "AX T2",
			Modality:          "MR",
			InstanceNumber:    i,
		})
	}

	if g.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", g.Len())
	}

	series := g.Series()
	if len(series) != 2 {
		t.Fatalf("got %d series, want 2", len(series))
	}

	// First-seen key order.
	if series[0].Key != "001 - AX T1 (MR)" || series[1].Key != "002 - AX T2 (MR)" {
		t.Errorf("unexpected series order: %q, %q", series[0].Key, series[1].Key)
	}

	for _, s := range series {
		if len(s.Records) != 5 {
			t.Errorf("series %s has %d records, want 5", s.Key, len(s.Records))
		}
		for i, r := range s.Records {
			if r.InstanceNumber != i+1 {
				t.Errorf("series %s record %d has instance %d, want %d",
					s.Key, i, r.InstanceNumber, i+1)
			}
		}
	}
}

func TestGrouperStableForEqualInstanceNumbers(t *testing.T) {
	g := NewGrouper()
	for _, path := range []string{"/x/first", "/x/second", "/x/third"} {
		g.Add(Metadata{Path: path, SeriesDescription: "S", Modality: "CT", InstanceNumber: 7})
	}

	series := g.Series()
	if len(series) != 1 {
		t.Fatalf("got %d series, want 1", len(series))
	}
	records := series[0].Records
	if records[0].Path != "/x/first" || records[1].Path != "/x/second" || records[2].Path != "/x/third" {
		t.Errorf("equal instance numbers lost arrival order: %v", records)
	}
}

func TestGrouperSeparatesVideoBuckets(t *testing.T) {
	g := NewGrouper()
	g.Add(Metadata{Path: "/a", SeriesNumber: 1, SeriesDescription: "S", Modality: "US"})
	g.Add(Metadata{Path: "/b", SeriesNumber: 1, SeriesDescription: "S", Modality: "US", Video: true})

	series := g.Series()
	if len(series) != 2 {
		t.Fatalf("image and video records with the same series must not share a bucket, got %d", len(series))
	}
	if series[1].Key != "001 - S (US) [video]" {
		t.Errorf("video bucket key = %q", series[1].Key)
	}
	if !series[1].Video {
		t.Error("video bucket not flagged as video")
	}
}

func TestOrganize(t *testing.T) {
	metas := []Metadata{
		{Path: "/a/2", SeriesNumber: 1, SeriesDescription: "S", Modality: "CT", InstanceNumber: 2},
		{Path: "/a/1", SeriesNumber: 1, SeriesDescription: "S", Modality: "CT", InstanceNumber: 1},
	}

	series := Organize(metas)
	if len(series) != 1 || len(series[0].Records) != 2 {
		t.Fatalf("unexpected organization: %+v", series)
	}
	if series[0].Records[0].Path != "/a/1" {
		t.Errorf("records not sorted by instance number: %+v", series[0].Records)
	}
}

func TestInfoPanel(t *testing.T) {
	m := Metadata{
		Path:              "/data/scan.dcm",
		SeriesDescription: "AX T1",
		SeriesNumber:      3,
		Modality:          "MR",
		InstanceNumber:    7,
		FrameCount:        1,
		PatientName:       "DOE^JANE",
		PatientID:         "P123",
		StudyDescription:  "Brain",
		StudyDate:         "20260101",
	}

	info := m.Info()
	for _, want := range []string{"AX T1", "MR", "DOE^JANE", "P123", "scan.dcm", "Type: image"} {
		if !strings.Contains(info, want) {
			t.Errorf("Info() missing %q:\n%s", want, info)
		}
	}

	m.Video = true
	if !strings.Contains(m.Info(), "Type: video") {
		t.Error("Info() should report video type")
	}
}
