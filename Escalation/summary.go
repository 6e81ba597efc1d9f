package Escalation

import (
	"sort"
	"time"

	"Hearth/Models"
)

// TopChildrenCount limits childrenWithMostEscalations.
const TopChildrenCount = 3

type ChildEscalationCount struct {
	ChildID uint `json:"child_id"`
	Count   int  `json:"count"`
}

type Summary struct {
	TotalEscalations            int                    `json:"total_escalations"`
	CurrentlyEscalated          int                    `json:"currently_escalated"`
	AverageResolutionMinutes    float64                `json:"average_resolution_minutes"`
	EscalationsByLevel          map[int]int            `json:"escalations_by_level"`
	ChildrenWithMostEscalations []ChildEscalationCount `json:"children_with_most_escalations"`
}

// GetActiveEscalations returns the family's unresolved escalations, most
// severe and longest-running first.
func (e *Engine) GetActiveEscalations(familyID uint) ([]Models.Escalation, error) {
	var escalations []Models.Escalation
	err := e.DB.Where("family_id = ? AND resolved_reason IS NULL", familyID).
		Order("level DESC, start_time ASC").
		Find(&escalations).Error
	return escalations, err
}

// GetEscalationSummary aggregates the family's escalation records created
// within the last windowDays days.
func (e *Engine) GetEscalationSummary(familyID uint, windowDays int, now time.Time) (*Summary, error) {
	cutoff := now.AddDate(0, 0, -windowDays)

	var records []Models.Escalation
	if err := e.DB.Where("family_id = ? AND start_time >= ?", familyID, cutoff).
		Find(&records).Error; err != nil {
		return nil, err
	}

	summary := &Summary{
		EscalationsByLevel:          map[int]int{1: 0, 2: 0, 3: 0, 4: 0},
		ChildrenWithMostEscalations: []ChildEscalationCount{},
	}

	perChild := make(map[uint]int)
	var resolvedCount int
	var resolutionMinutes float64

	for _, record := range records {
		summary.TotalEscalations++
		perChild[record.ChildID]++

		// Level is monotonic, so a level-3 record also reached 1 and 2.
		for l := 1; l <= record.Level && l <= MaxLevel; l++ {
			summary.EscalationsByLevel[l]++
		}

		if record.IsResolved() {
			if record.ResolvedAt != nil {
				resolvedCount++
				resolutionMinutes += record.ResolvedAt.Sub(record.StartTime).Minutes()
			}
		} else {
			summary.CurrentlyEscalated++
		}
	}

	if resolvedCount > 0 {
		summary.AverageResolutionMinutes = resolutionMinutes / float64(resolvedCount)
	}

	for childID, count := range perChild {
		summary.ChildrenWithMostEscalations = append(summary.ChildrenWithMostEscalations, ChildEscalationCount{
			ChildID: childID,
			Count:   count,
		})
	}
	sort.Slice(summary.ChildrenWithMostEscalations, func(i, j int) bool {
		a, b := summary.ChildrenWithMostEscalations[i], summary.ChildrenWithMostEscalations[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.ChildID < b.ChildID
	})
	if len(summary.ChildrenWithMostEscalations) > TopChildrenCount {
		summary.ChildrenWithMostEscalations = summary.ChildrenWithMostEscalations[:TopChildrenCount]
	}

	return summary, nil
}
