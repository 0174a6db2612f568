package models

import "time"

// DailyRecord is one day of metered consumption.
type DailyRecord struct {
	Date       time.Time
	TotalUnits float64
}

// FeatureVector holds the engineered features for one day of history.
// Rolling averages fall back to the day's own units while their window is incomplete.
type FeatureVector struct {
	Date        time.Time
	TotalUnits  float64
	AvgLast3    float64
	AvgLast7    float64
	AvgLast14   float64
	AvgLast30   float64
	DayOfWeek   int // 0=Monday .. 6=Sunday
	IsWeekend   bool
	Trend       float64 // AvgLast3 - AvgLast7
	LongTrend   float64 // AvgLast7 - AvgLast14
	HistoryDays int     // records up to and including this one
}

// DailyPrediction is a single forecast day.
type DailyPrediction struct {
	Day            int
	Date           time.Time
	DayName        string
	PredictedUnits float64
}

// WeeklySummary aggregates a contiguous block of forecast days.
type WeeklySummary struct {
	Week          int
	Days          int
	TotalUnits    float64
	AvgDailyUnits float64
	StartDate     time.Time
	EndDate       time.Time
}
