package service

import (
	"math"

	"github.com/rentwise/api/internal/model"
)

// GeoService handles geographic calculations for listing search
type GeoService struct{}

// NewGeoService creates a new geo service
func NewGeoService() *GeoService {
	return &GeoService{}
}

// EarthRadiusKm is the Earth's radius in kilometers
const EarthRadiusKm = 6371.0

// kmPerDegreeLat is the approximate length of one degree of latitude
const kmPerDegreeLat = 111.0

// HaversineDistance calculates the great-circle distance between two points in kilometers
func (s *GeoService) HaversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLng/2)*math.Sin(deltaLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// DistanceTo returns the distance from the center to a listing's coordinates.
// ok is false when the listing has no coordinates.
func (s *GeoService) DistanceTo(centerLat, centerLng float64, lat, lng *float64) (km float64, ok bool) {
	if lat == nil || lng == nil {
		return 0, false
	}
	return s.HaversineDistance(centerLat, centerLng, *lat, *lng), true
}

// GetBoundingBox returns a rectangle that contains every point within
// radiusKm of the center. It is a storage prefilter; callers refine with
// HaversineDistance.
func (s *GeoService) GetBoundingBox(lat, lng, radiusKm float64) model.BoundingBox {
	latDelta := radiusKm / kmPerDegreeLat

	box := model.BoundingBox{
		MinLat: math.Max(lat-latDelta, -90),
		MaxLat: math.Min(lat+latDelta, 90),
		MinLng: -180,
		MaxLng: 180,
	}

	// near the poles a degree of longitude shrinks to nothing; keep the full range
	cos := math.Cos(lat * math.Pi / 180)
	if cos < 1e-6 {
		return box
	}
	lngDelta := radiusKm / (kmPerDegreeLat * cos)
	if lngDelta >= 180 {
		return box
	}
	box.MinLng = lng - lngDelta
	box.MaxLng = lng + lngDelta
	return box
}
