package query

import (
	"errors"
	"testing"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

func TestParseBBox(t *testing.T) {
	cases := []struct {
		in      string
		want    models.BBox
		wantErr error
	}{
		{"144.9,-37.83,145.0,-37.80", models.BBox{MinLon: 144.9, MinLat: -37.83, MaxLon: 145.0, MaxLat: -37.80}, nil},
		{" 144.9 , -37.83 ,145, -37.8 ", models.BBox{MinLon: 144.9, MinLat: -37.83, MaxLon: 145, MaxLat: -37.8}, nil},
		{"145.0,-37.80,144.9,-37.83", models.BBox{MinLon: 145.0, MinLat: -37.80, MaxLon: 144.9, MaxLat: -37.83}, nil},
		{"", models.BBox{}, ErrBBoxRequired},
		{"   ", models.BBox{}, ErrBBoxRequired},
		{"abc", models.BBox{}, ErrInvalidBBox},
		{"144.9,-37.83,145.0", models.BBox{}, ErrInvalidBBox},
		{"1,2,3,4,5", models.BBox{}, ErrInvalidBBox},
		{"1,2,,4", models.BBox{}, ErrInvalidBBox},
		{"1,NaN,3,4", models.BBox{}, ErrInvalidBBox},
		{"1,2,+Inf,4", models.BBox{}, ErrInvalidBBox},
	}
	for _, tc := range cases {
		got, err := ParseBBox(tc.in)
		if !errors.Is(err, tc.wantErr) {
			t.Errorf("ParseBBox(%q) error: got %v, want %v", tc.in, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("ParseBBox(%q): got %+v, want %+v", tc.in, got, tc.want)
		}
	}
}
