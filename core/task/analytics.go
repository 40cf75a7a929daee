package task

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/nkashama/duetrack/core"
)

// Time stat units.
const (
	UnitWeek  = "week"
	UnitMonth = "month"
)

type (
	// StatusStats counts a user's tasks per lifecycle status.
	StatusStats struct {
		Completed  int `json:"completed"`
		Pending    int `json:"pending"`
		InProgress int `json:"in_progress"`
		Overdue    int `json:"overdue"`
	}

	// CourseStats breaks a user's tasks down per course.
	CourseStats struct {
		CourseID   string `json:"course_id"`
		CourseName string `json:"course_name"`
		Total      int    `json:"total"`
		Completed  int    `json:"completed"`
		Pending    int    `json:"pending"`
		InProgress int    `json:"in_progress"`
		Overdue    int    `json:"overdue"`
	}

	// TimeStats counts tasks created and completed per period (ISO week
	// or month of the year, depending on the requested unit).
	TimeStats struct {
		Period    int `json:"period"`
		Created   int `json:"created"`
		Completed int `json:"completed"`
	}

	// CompletionRate is the percentage of a course's tasks that are completed.
	CompletionRate struct {
		CourseID   string  `json:"course_id"`
		CourseName string  `json:"course_name"`
		Total      int     `json:"total"`
		Completed  int     `json:"completed"`
		Rate       float64 `json:"rate"`
	}
)

func (svc *Service) StatusStats(userID string) (StatusStats, error) {
	tsks, err := svc.repo.QueryTasksByUser(userID)
	if err != nil {
		return StatusStats{}, err
	}

	var stats StatusStats
	for _, tsk := range tsks {
		switch tsk.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusOverdue:
			stats.Overdue++
		}
	}
	return stats, nil
}

func (svc *Service) CourseStats(userID string) ([]CourseStats, error) {
	tsks, err := svc.repo.QueryTasksByUser(userID)
	if err != nil {
		return nil, err
	}

	byCourse := make(map[string]*CourseStats)
	for _, tsk := range tsks {
		if tsk.CourseID == "" {
			continue
		}
		stats, ok := byCourse[tsk.CourseID]
		if !ok {
			stats = &CourseStats{CourseID: tsk.CourseID}
			byCourse[tsk.CourseID] = stats
		}
		stats.Total++
		switch tsk.Status {
		case StatusCompleted:
			stats.Completed++
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusOverdue:
			stats.Overdue++
		}
	}
	if len(byCourse) == 0 {
		return []CourseStats{}, nil
	}

	if err := svc.fillCourseNames(byCourse); err != nil {
		return nil, err
	}

	res := make([]CourseStats, 0, len(byCourse))
	for _, stats := range byCourse {
		res = append(res, *stats)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CourseName < res[j].CourseName })
	return res, nil
}

func (svc *Service) TimeStats(userID, unit string) ([]TimeStats, error) {
	if unit != UnitWeek && unit != UnitMonth {
		return nil, core.NewValidationError(nil, core.FieldError{
			Field: "unit",
			Error: "must be one of: week, month",
		})
	}

	tsks, err := svc.repo.QueryTasksByUser(userID)
	if err != nil {
		return nil, err
	}

	byPeriod := make(map[int]*TimeStats)
	for _, tsk := range tsks {
		var period int
		if unit == UnitWeek {
			_, period = tsk.CreatedAt.ISOWeek()
		} else {
			period = int(tsk.CreatedAt.Month())
		}
		stats, ok := byPeriod[period]
		if !ok {
			stats = &TimeStats{Period: period}
			byPeriod[period] = stats
		}
		stats.Created++
		if tsk.Status == StatusCompleted {
			stats.Completed++
		}
	}

	res := make([]TimeStats, 0, len(byPeriod))
	for _, stats := range byPeriod {
		res = append(res, *stats)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Period < res[j].Period })
	return res, nil
}

func (svc *Service) CompletionRates(userID string) ([]CompletionRate, error) {
	crsStats, err := svc.CourseStats(userID)
	if err != nil {
		return nil, err
	}

	res := make([]CompletionRate, 0, len(crsStats))
	for _, stats := range crsStats {
		rate := CompletionRate{
			CourseID:   stats.CourseID,
			CourseName: stats.CourseName,
			Total:      stats.Total,
			Completed:  stats.Completed,
		}
		if stats.Total > 0 {
			rate.Rate = float64(stats.Completed) / float64(stats.Total) * 100
		}
		res = append(res, rate)
	}
	return res, nil
}

func (svc *Service) fillCourseNames(byCourse map[string]*CourseStats) error {
	ids := make([]string, 0, len(byCourse))
	for id := range byCourse {
		ids = append(ids, id)
	}
	crss, err := svc.courses.GetCoursesByIDs(ids)
	if err != nil {
		return errors.Wrap(err, "resolving course names")
	}
	for _, crs := range crss {
		if stats, ok := byCourse[crs.ID]; ok {
			stats.CourseName = crs.Name
		}
	}
	return nil
}
