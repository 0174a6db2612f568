package usecase

import (
	"EnergyForecast/internal/domain/models"
)

// historyWindows lists, per prediction type, the preferred window sizes (largest first) and
// the minimum history. When no preferred window fits but at least min days exist, all
// available days are used.
var historyWindows = map[models.PredictionType]struct {
	sizes    []int
	min      int
	allowAll bool
}{
	models.PredictionDaily:   {sizes: []int{30, 14, 7, 3}, min: 3},
	models.PredictionWeekly:  {sizes: []int{30, 21, 14}, min: 7, allowAll: true},
	models.PredictionMonthly: {sizes: []int{60, 45, 30}, min: 14, allowAll: true},
}

// SelectHistory returns how many of the most recent days to feed a forecast of type pt.
func SelectHistory(pt models.PredictionType, available int) (int, error) {
	w, ok := historyWindows[pt]
	if !ok {
		_, err := models.ParsePredictionType(string(pt))
		return 0, err
	}
	for _, n := range w.sizes {
		if available >= n {
			return n, nil
		}
	}
	if w.allowAll && available >= w.min {
		return available, nil
	}
	return 0, models.NewInsufficientHistoryError(available, w.min)
}

// MaxHistory is the largest window any prediction type may request.
func MaxHistory(pt models.PredictionType) int {
	w, ok := historyWindows[pt]
	if !ok || len(w.sizes) == 0 {
		return 0
	}
	return w.sizes[0]
}
