package feeds

import (
	"testing"
	"time"
)

func TestParseCADTimestampPrimaryFormat(t *testing.T) {
	got, ok := parseCADTimestamp("2029-Apr-13 21:46")
	if !ok {
		t.Fatal("expected timestamp to parse")
	}
	want := time.Date(2029, time.April, 13, 21, 46, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseCADTimestampFallbackFormats(t *testing.T) {
	cases := []string{
		"2029-Apr-13 21:46:05",
		"2029-Apr-13",
		"2029-04-13 21:46",
	}
	for _, s := range cases {
		if _, ok := parseCADTimestamp(s); !ok {
			t.Errorf("parseCADTimestamp(%q) failed to parse", s)
		}
	}
}

func TestParseCADTimestampMalformedIsSkipped(t *testing.T) {
	if _, ok := parseCADTimestamp("not a date"); ok {
		t.Fatal("expected malformed timestamp to fail, not fabricate a value")
	}
}

func TestParseCADRowFiltersByFieldIndex(t *testing.T) {
	idx := fieldIndex([]string{"des", "cd", "dist", "v_rel", "fullname"})
	row := []string{"2023 TEST", "2029-Apr-13 21:46", "0.5", "12.3", "(2023 TEST) Test Object"}

	rec, des, ok := parseCADRow(row, idx)
	if !ok {
		t.Fatal("expected row to parse")
	}
	if des != "2023 TEST" {
		t.Errorf("designation = %q", des)
	}
	if rec.DistanceAU != 0.5 {
		t.Errorf("DistanceAU = %v", rec.DistanceAU)
	}
	if rec.AsteroidName == nil || *rec.AsteroidName != "(2023 TEST) Test Object" {
		t.Errorf("AsteroidName = %v", rec.AsteroidName)
	}
}

func TestParseCADRowSkipsUnparseableTimestamp(t *testing.T) {
	idx := fieldIndex([]string{"des", "cd", "dist", "v_rel"})
	row := []string{"2023 TEST", "garbage", "0.5", "12.3"}

	if _, _, ok := parseCADRow(row, idx); ok {
		t.Fatal("expected row with malformed timestamp to be dropped")
	}
}

// Replays FetchApproaches' row loop (parseCADRow plus the toSet filter)
// without an HTTP round trip.
func TestParsedCADRowsFilteredByIDSet(t *testing.T) {
	idx := fieldIndex([]string{"des", "cd", "dist", "v_rel"})
	rows := [][]string{
		{"2023 TEST", "2029-Apr-13 21:46", "0.5", "12.3"},
		{"2024 OTHER", "2029-Apr-14 10:00", "0.3", "9.1"},
	}

	filter := toSet([]string{"2023 TEST"})
	out := make(map[string][]string)
	for _, row := range rows {
		_, des, ok := parseCADRow(row, idx)
		if !ok {
			continue
		}
		if filter != nil && !filter[des] {
			continue
		}
		out[des] = append(out[des], des)
	}
	if _, present := out["2024 OTHER"]; present {
		t.Fatal("expected filtered-out designation to be absent")
	}
	if _, present := out["2023 TEST"]; !present {
		t.Fatal("expected matching designation to be present")
	}
}
