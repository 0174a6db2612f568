package training

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"EnergyForecast/internal/domain/models"
	"EnergyForecast/pkg/util"
)

// Export is the nested consumption dump: user -> record key -> {date, total_units}.
type Export map[string]map[string]json.RawMessage

type exportEntry struct {
	Date       *string  `json:"date"`
	TotalUnits *float64 `json:"total_units"`
}

// ReadExport decodes an export from r.
func ReadExport(r io.Reader) (Export, error) {
	var e Export
	if err := json.NewDecoder(r).Decode(&e); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}
	return e, nil
}

// ReadExportFile opens and decodes path.
func ReadExportFile(path string) (Export, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open export: %w", err)
	}
	defer f.Close()
	return ReadExport(f)
}

// UserSeries is one user's flattened history.
type UserSeries struct {
	User    string
	Records []models.DailyRecord
}

// FlattenStats counts entries dropped while flattening.
type FlattenStats struct {
	Entries    int
	Skipped    int
	Duplicates int
}

// Flatten turns the export into per-user series sorted by date. Entries without a
// date or total_units, with an unparseable date or with a non-finite or negative
// value are skipped. When a user has several entries for one date the one under
// the greatest record key wins.
func (e Export) Flatten() ([]UserSeries, FlattenStats) {
	var stats FlattenStats

	users := make([]string, 0, len(e))
	for u := range e {
		users = append(users, u)
	}
	sort.Strings(users)

	out := make([]UserSeries, 0, len(users))
	for _, user := range users {
		entries := e[user]
		keys := make([]string, 0, len(entries))
		for k := range entries {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		byDate := make(map[string]models.DailyRecord, len(keys))
		for _, k := range keys {
			stats.Entries++
			var ent exportEntry
			if err := json.Unmarshal(entries[k], &ent); err != nil || ent.Date == nil || ent.TotalUnits == nil {
				stats.Skipped++
				continue
			}
			u := *ent.TotalUnits
			if math.IsNaN(u) || math.IsInf(u, 0) || u < 0 {
				stats.Skipped++
				continue
			}
			d, err := util.ParseDate(*ent.Date)
			if err != nil {
				stats.Skipped++
				continue
			}
			day := util.FormatDate(d)
			if _, dup := byDate[day]; dup {
				stats.Duplicates++
			}
			byDate[day] = models.DailyRecord{Date: d, TotalUnits: u}
		}
		if len(byDate) == 0 {
			continue
		}

		recs := make([]models.DailyRecord, 0, len(byDate))
		for _, r := range byDate {
			recs = append(recs, r)
		}
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		out = append(out, UserSeries{User: user, Records: recs})
	}
	return out, stats
}
