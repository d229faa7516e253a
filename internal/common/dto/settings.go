package dto

// SettingsOut presents the global settings with the forbidden days as a
// list rather than the persisted comma-joined string.
type SettingsOut struct {
	CheckGPS           bool     `json:"check_gps"`
	GPSToleranceMeters int      `json:"gps_tolerance_meters"`
	CheckDuration      bool     `json:"check_duration"`
	MinDurationMinutes int      `json:"min_duration_minutes"`
	CheckWorkHours     bool     `json:"check_work_hours"`
	WorkStartTime      *string  `json:"work_start_time"`
	WorkEndTime        *string  `json:"work_end_time"`
	CheckForbiddenDays bool     `json:"check_forbidden_days"`
	ForbiddenDays      []string `json:"forbidden_days"`
	CheckMaxDaily      bool     `json:"check_max_daily"`
	MaxSurveysPerDay   int      `json:"max_surveys_per_day"`
	Announcement       *string  `json:"announcement"`
}

// UpdateSettingsRequest mirrors SettingsOut; every field is optional so
// the director only sends what changes.
type UpdateSettingsRequest struct {
	CheckGPS           *bool     `json:"check_gps"`
	GPSToleranceMeters *int      `json:"gps_tolerance_meters"`
	CheckDuration      *bool     `json:"check_duration"`
	MinDurationMinutes *int      `json:"min_duration_minutes"`
	CheckWorkHours     *bool     `json:"check_work_hours"`
	WorkStartTime      *string   `json:"work_start_time"`
	WorkEndTime        *string   `json:"work_end_time"`
	CheckForbiddenDays *bool     `json:"check_forbidden_days"`
	ForbiddenDays      *[]string `json:"forbidden_days"`
	CheckMaxDaily      *bool     `json:"check_max_daily"`
	MaxSurveysPerDay   *int      `json:"max_surveys_per_day"`
	Announcement       *string   `json:"announcement"`
}
