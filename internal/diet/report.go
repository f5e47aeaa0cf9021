package diet

import (
	"context"
	"slices"
)

// Insight window options.
const (
	DefaultInsightRange = 14
	InsightPageSize     = 7
	insightHistoryDays  = 30
)

var insightRanges = []int{7, 14, 30}

// InsightsQuery selects the chart window and the filtered, paginated history.
// Zero values pick the defaults: a 14 day chart, the last 30 days of history,
// every status and page 1.
type InsightsQuery struct {
	RangeDays int
	Start     *CalendarDay
	End       *CalendarDay
	Status    CalorieStatus
	Page      int
}

// HistoryEntry is a ledger annotated with its resolved target and status.
type HistoryEntry struct {
	Log    DailyLog      `json:"log"`
	Target *int          `json:"target"`
	Status CalorieStatus `json:"status"`
}

// LatestSummary describes the most recent ledger in the history window, or
// today's ledger when the window is empty.
type LatestSummary struct {
	Date         CalendarDay   `json:"date"`
	Target       *int          `json:"target"`
	TargetSource TargetSource  `json:"target_source"`
	Status       CalorieStatus `json:"status"`
	StatusLabel  string        `json:"status_label"`
	Weight       *float64      `json:"weight"`
	WeightDelta  *float64      `json:"weight_delta"`
}

type Insights struct {
	RangeDays           int            `json:"range_days"`
	Chart               []TrendPoint   `json:"chart"`
	HistoryStart        CalendarDay    `json:"history_start"`
	HistoryEnd          CalendarDay    `json:"history_end"`
	StatusFilter        CalorieStatus  `json:"status_filter,omitempty"`
	History             []HistoryEntry `json:"history"`
	Page                int            `json:"page"`
	TotalPages          int            `json:"total_pages"`
	TotalEntries        int            `json:"total_entries"`
	Latest              LatestSummary  `json:"latest"`
	Today               DailyLog       `json:"today"`
	RecommendedCalories *int           `json:"recommended_calories"`
}

// Insights builds the diet dashboard for a user. Today's ledger is created if
// it does not exist yet.
func (s *DietService) Insights(ctx context.Context, userID int, q InsightsQuery) (Insights, error) {
	rangeDays := q.RangeDays
	if !slices.Contains(insightRanges, rangeDays) {
		rangeDays = DefaultInsightRange
	}
	today := s.Today()

	historyStart := today.AddDays(-(insightHistoryDays - 1))
	if q.Start != nil {
		historyStart = *q.Start
	}
	historyEnd := today
	if q.End != nil {
		historyEnd = *q.End
	}
	if historyEnd.Before(historyStart) {
		historyStart, historyEnd = historyEnd, historyStart
	}
	statusFilter := q.Status
	if statusFilter == StatusNoTarget || !statusFilter.Valid() {
		statusFilter = ""
	}

	todayLog, err := s.GetDailyLog(ctx, userID, today)
	if err != nil {
		return Insights{}, err
	}
	user, err := getUser(ctx, s.store, userID)
	if err != nil {
		return Insights{}, err
	}

	chartStart := today.AddDays(-(rangeDays - 1))
	chartLogs, err := s.ListDailyLogs(ctx, userID, LogQuery{From: &chartStart, To: &today, Order: OrderAsc}, false)
	if err != nil {
		return Insights{}, err
	}
	historyLogs, err := s.ListDailyLogs(ctx, userID, LogQuery{From: &historyStart, To: &historyEnd, Order: OrderDesc}, false)
	if err != nil {
		return Insights{}, err
	}

	chart := make([]TrendPoint, len(chartLogs))
	for i, l := range chartLogs {
		chart[i] = trendPoint(l)
	}

	filtered := []HistoryEntry{}
	for _, l := range historyLogs {
		status := DetermineCalorieStatus(l)
		if statusFilter != "" && status != statusFilter {
			continue
		}
		target, _ := ResolveCalorieTarget(l)
		filtered = append(filtered, HistoryEntry{Log: l, Target: target, Status: status})
	}
	totalPages := max(1, (len(filtered)+InsightPageSize-1)/InsightPageSize)
	page := min(max(1, q.Page), totalPages)
	lo := min((page-1)*InsightPageSize, len(filtered))
	hi := min(page*InsightPageSize, len(filtered))

	latestLog := todayLog
	if len(historyLogs) > 0 {
		latestLog = historyLogs[0]
	}
	latestTarget, source := ResolveCalorieTarget(latestLog)
	latestStatus := DetermineCalorieStatus(latestLog)
	latestWeight := latestLog.CurrentWeight
	if latestWeight == nil && user.BodyWeight > 0 {
		latestWeight = &user.BodyWeight
	}
	var previousWeight *float64
	if len(chart) > 1 {
		previousWeight = chart[len(chart)-2].Weight
	}

	return Insights{
		RangeDays:    rangeDays,
		Chart:        chart,
		HistoryStart: historyStart,
		HistoryEnd:   historyEnd,
		StatusFilter: statusFilter,
		History:      filtered[lo:hi],
		Page:         page,
		TotalPages:   totalPages,
		TotalEntries: len(filtered),
		Latest: LatestSummary{
			Date:         latestLog.Date,
			Target:       latestTarget,
			TargetSource: source,
			Status:       latestStatus,
			StatusLabel:  latestStatus.Label(),
			Weight:       latestWeight,
			WeightDelta:  weightDelta(latestWeight, previousWeight),
		},
		Today:               todayLog,
		RecommendedCalories: firstPresent(todayLog.GoalCalorieTarget, todayLog.DailyNeedCalories),
	}, nil
}
