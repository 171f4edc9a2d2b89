package store

import (
	"sort"

	"github.com/waftester/apiprobe/pkg/finding"
)

// Summary aggregates stored records the way the results dashboard
// presents them.
type Summary struct {
	TotalTests      int            `json:"total_tests"`
	Vulnerabilities int            `json:"vulnerabilities"`
	Scans           int            `json:"scans"`
	RiskLevels      RiskLevels     `json:"risk_levels"`
	Categories      map[string]int `json:"categories"`
	Timeline        []MonthCount   `json:"timeline"`
}

// RiskLevels counts vulnerable records per severity bucket.
type RiskLevels struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// MonthCount is the number of vulnerable records created in Month
// ("2006-01").
type MonthCount struct {
	Month      string `json:"month"`
	Vulnerable int    `json:"vulnerable"`
}

// Summarize aggregates recs. Categories count vulnerable records per
// test name; the timeline lists every month with records, oldest first,
// including months with zero findings.
func Summarize(recs []Record) Summary {
	s := Summary{
		TotalTests: len(recs),
		Categories: make(map[string]int),
	}
	scans := make(map[string]struct{})
	months := make(map[string]int)

	for _, r := range recs {
		scans[r.ScanID] = struct{}{}
		month := r.CreatedAt.UTC().Format("2006-01")
		if _, ok := months[month]; !ok {
			months[month] = 0
		}
		if !r.Vulnerable {
			continue
		}
		s.Vulnerabilities++
		s.Categories[r.TestName]++
		months[month]++
		switch r.Severity() {
		case finding.Critical:
			s.RiskLevels.Critical++
		case finding.High:
			s.RiskLevels.High++
		case finding.Medium:
			s.RiskLevels.Medium++
		case finding.Low:
			s.RiskLevels.Low++
		}
	}

	s.Scans = len(scans)
	s.Timeline = make([]MonthCount, 0, len(months))
	for m, n := range months {
		s.Timeline = append(s.Timeline, MonthCount{Month: m, Vulnerable: n})
	}
	sort.Slice(s.Timeline, func(i, j int) bool { return s.Timeline[i].Month < s.Timeline[j].Month })
	return s
}
