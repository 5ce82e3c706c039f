package routing

import "saferoute/internal/model"

// DecodePolyline decodes a Google-format encoded polyline with the given
// precision factor (1e5 for polyline5, 1e6 for polyline6).
func DecodePolyline(encoded string, factor float64) model.Polyline {
	var coords model.Polyline
	var lat, lng int64
	idx := 0

	readDelta := func() int64 {
		var result int64
		var shift uint
		for idx < len(encoded) {
			b := int64(encoded[idx]) - 63
			idx++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		if result&1 != 0 {
			return ^(result >> 1)
		}
		return result >> 1
	}

	for idx < len(encoded) {
		lat += readDelta()
		if idx >= len(encoded) {
			break
		}
		lng += readDelta()
		coords = append(coords, model.Coordinate{
			Lat: float64(lat) / factor,
			Lng: float64(lng) / factor,
		})
	}
	return coords
}

// DecodePolyline6 decodes OSRM's polyline6 geometry encoding.
func DecodePolyline6(encoded string) model.Polyline {
	return DecodePolyline(encoded, 1e6)
}
