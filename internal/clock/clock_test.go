package clock

import (
	"testing"
	"time"
)

func TestNowIsUTC(t *testing.T) {
	if Now().Location() != time.UTC {
		t.Fatalf("Now() location = %v, want UTC", Now().Location())
	}
}

func TestToUTC(t *testing.T) {
	loc := time.FixedZone("TEST", 3*3600)
	local := time.Date(2029, time.April, 13, 21, 46, 0, 0, loc)

	got := ToUTC(local)

	if got.Location() != time.UTC {
		t.Fatalf("location = %v, want UTC", got.Location())
	}
	want := time.Date(2029, time.April, 13, 18, 46, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("ToUTC(%v) = %v, want %v", local, got, want)
	}
}

func TestAtBoundaryIsIdentityOnUTC(t *testing.T) {
	ts := time.Date(2029, time.April, 13, 21, 46, 0, 0, time.UTC)
	if got := AtBoundary(ts); !got.Equal(ts) {
		t.Fatalf("AtBoundary(%v) = %v, want identity", ts, got)
	}
}
