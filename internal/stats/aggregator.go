package stats

import (
	"time"

	"civic-watch/incident-reports-backend/internal/incidents"
)

// Age bucket labels, in ascending order.
const (
	AgeBucket0To17  = "0-17"
	AgeBucket18To25 = "18-25"
	AgeBucket26To35 = "26-35"
	AgeBucket36To50 = "36-50"
	AgeBucket51To65 = "51-65"
	AgeBucket66Plus = "66+"
)

// ReportStatistics is the aggregation result for one reporting period.
type ReportStatistics struct {
	TotalCount           int            `json:"total_count"`
	ByCrimeType          map[string]int `json:"by_crime_type"`
	ByZone               map[string]int `json:"by_zone"`
	ByAgeBucket          map[string]int `json:"by_age_bucket"`
	LGBTQCount           int            `json:"lgbtq_count"`
	MigrantCount         int            `json:"migrant_count"`
	StreetSituationCount int            `json:"street_situation_count"`
	DisabilityCount      int            `json:"disability_count"`
	MostFrequentCrime    string         `json:"most_frequent_crime"`
	MostActiveZone       string         `json:"most_active_zone"`
}

// Aggregate computes report statistics over the records whose occurrence time
// falls inside [periodStart, periodEnd). It is a pure function: same input,
// same output, no I/O.
func Aggregate(records []incidents.Record, periodStart, periodEnd time.Time) ReportStatistics {
	result := ReportStatistics{
		ByCrimeType: make(map[string]int),
		ByZone:      make(map[string]int),
		ByAgeBucket: make(map[string]int),
	}

	for _, record := range records {
		if record.OccurredAt.Before(periodStart) || !record.OccurredAt.Before(periodEnd) {
			continue
		}

		result.TotalCount++
		result.ByCrimeType[record.CrimeType]++
		result.ByZone[record.Zone]++
		result.ByAgeBucket[AgeBucket(record.VictimAge)]++

		if record.IsLGBTQ {
			result.LGBTQCount++
		}
		if record.IsMigrant {
			result.MigrantCount++
		}
		if record.InStreetSituation {
			result.StreetSituationCount++
		}
		if record.HasDisability {
			result.DisabilityCount++
		}
	}

	result.MostFrequentCrime = argMax(result.ByCrimeType)
	result.MostActiveZone = argMax(result.ByZone)

	return result
}

// AgeBucket maps an age to its fixed bucket label.
func AgeBucket(age int) string {
	switch {
	case age <= 17:
		return AgeBucket0To17
	case age <= 25:
		return AgeBucket18To25
	case age <= 35:
		return AgeBucket26To35
	case age <= 50:
		return AgeBucket36To50
	case age <= 65:
		return AgeBucket51To65
	default:
		return AgeBucket66Plus
	}
}

// argMax returns the key with the highest count. On a tie the
// lexicographically smallest key wins; an empty map yields "".
func argMax(counts map[string]int) string {
	best := ""
	bestCount := -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best = key
			bestCount = count
		}
	}
	return best
}
