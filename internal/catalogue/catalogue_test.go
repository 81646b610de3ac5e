package catalogue

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/02loveslollipop/parkwatch/internal/db"
)

const sampleCatalogue = `parking_zone,street_name,lat,lon,total_spots,available_spots
7001,Collins St,-37.8150,144.9660,12.0,
7002,,-37.8100,oops,8,3
,Orphan St,-37.8,144.9,4,4
7003,Bourke St,,,n/a,2.7
`

func TestParse(t *testing.T) {
	zones, skipped, err := Parse(strings.NewReader(sampleCatalogue))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped: got %d, want 1", skipped)
	}
	if len(zones) != 3 {
		t.Fatalf("zones: got %d, want 3", len(zones))
	}

	z := zones["7001"]
	if z.StreetName == nil || *z.StreetName != "Collins St" {
		t.Errorf("7001 street: got %v", z.StreetName)
	}
	if z.TotalSpots == nil || *z.TotalSpots != 12 {
		t.Errorf("7001 total: got %v, want 12", z.TotalSpots)
	}
	if z.AvailableSpots != nil {
		t.Errorf("7001 available: got %d, want nil", *z.AvailableSpots)
	}

	z = zones["7002"]
	if z.StreetName != nil {
		t.Errorf("7002 street: got %q, want nil", *z.StreetName)
	}
	if z.Lat == nil || z.Lon != nil {
		t.Errorf("7002 coords: got lat=%v lon=%v, want lat set and lon nil", z.Lat, z.Lon)
	}

	z = zones["7003"]
	if z.TotalSpots != nil {
		t.Errorf("7003 total: got %d, want nil", *z.TotalSpots)
	}
	if z.AvailableSpots == nil || *z.AvailableSpots != 2 {
		t.Errorf("7003 available: got %v, want 2", z.AvailableSpots)
	}
}

func TestLoadFileIntoStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zones.csv")
	if err := os.WriteFile(path, []byte(sampleCatalogue), 0o644); err != nil {
		t.Fatal(err)
	}

	store := db.NewMemoryStore()
	ctx := context.Background()
	if err := store.UpsertDynamic(ctx, "7003", 5, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatal(err)
	}

	res, err := LoadFile(ctx, store, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if res.Loaded != 3 || res.Skipped != 1 {
		t.Errorf("result: got %+v, want loaded=3 skipped=1", res)
	}

	z, ok := store.Get("7003")
	if !ok {
		t.Fatal("zone 7003 missing")
	}
	if *z.AvailableSpots != 5 {
		t.Errorf("7003 available: got %d, want reconciled value 5 kept", *z.AvailableSpots)
	}
	if z.StreetName == nil || *z.StreetName != "Bourke St" {
		t.Errorf("7003 street: got %v, want Bourke St", z.StreetName)
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(context.Background(), db.NewMemoryStore(), filepath.Join(t.TempDir(), "nope.csv"))
	if err == nil {
		t.Fatal("LoadFile: expected error for missing file")
	}
}
