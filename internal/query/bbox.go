package query

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/02loveslollipop/parkwatch/internal/models"
)

var (
	// ErrBBoxRequired is returned for a missing or blank bbox parameter.
	ErrBBoxRequired = errors.New("bbox required")
	// ErrInvalidBBox is returned when bbox is not four finite numbers.
	ErrInvalidBBox = errors.New("invalid bbox")
)

// ParseBBox parses "min_lon,min_lat,max_lon,max_lat". Bounds are taken as
// given: an inverted box is valid and simply matches nothing.
func ParseBBox(s string) (models.BBox, error) {
	if strings.TrimSpace(s) == "" {
		return models.BBox{}, ErrBBoxRequired
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return models.BBox{}, ErrInvalidBBox
	}

	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return models.BBox{}, ErrInvalidBBox
		}
		v[i] = f
	}
	return models.BBox{MinLon: v[0], MinLat: v[1], MaxLon: v[2], MaxLat: v[3]}, nil
}
