package dto

// CreateZoneRequest registers a geographic survey area. The coordinates
// are pointers so a zone on the equator or prime meridian binds; 0.0 is
// a valid coordinate.
type CreateZoneRequest struct {
	Name             string   `json:"name" binding:"required"`
	CenterLatitude   *float64 `json:"center_latitude" binding:"required,gte=-90,lte=90"`
	CenterLongitude  *float64 `json:"center_longitude" binding:"required,gte=-180,lte=180"`
	ToleranceRadiusM int      `json:"tolerance_radius_m"`
}
