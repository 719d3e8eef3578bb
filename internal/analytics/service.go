package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/store"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service { return &Service{repo: repo, now: time.Now} }

// Dashboard reports KPIs for the window and their change against the
// window of equal length before it.
func (s *Service) Dashboard(ctx context.Context, sc store.Scope, dateRange string) (Dashboard, error) {
	r, err := calls.ParseRange(dateRange)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now().UTC()
	start := r.Since(now)
	prevStart := r.Since(start)

	rows, err := s.repo.ListCalls(ctx, sc, Window{From: prevStart})
	if err != nil {
		return Dashboard{}, err
	}

	var cur, prev tally
	for _, c := range rows {
		if c.CreatedAt.Before(start) {
			prev.add(c)
		} else {
			cur.add(c)
		}
	}

	out := Dashboard{
		DateRange:       r.Key,
		TotalCalls:      cur.total,
		AnswerRate:      calls.Percent(cur.completed, cur.total),
		InterestedLeads: cur.interested,
		AvgDuration:     clock(cur.avgDuration()),
		CostPerLead:     costPerLead(cur.costMinor, cur.interested),
	}
	if prev.total > 0 {
		out.TotalCallsChange = round1(float64(cur.total-prev.total) / float64(prev.total) * 100)
	}
	out.AnswerRateChange = round1(out.AnswerRate - calls.Percent(prev.completed, prev.total))
	return out, nil
}

// CallsOverTime returns one bucket per UTC day, oldest first, ending today.
func (s *Service) CallsOverTime(ctx context.Context, sc store.Scope, dateRange string) ([]DayBucket, error) {
	r, err := calls.ParseRange(dateRange)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	first := today.AddDate(0, 0, -(r.Days - 1))

	rows, err := s.repo.ListCalls(ctx, sc, Window{From: first})
	if err != nil {
		return nil, err
	}

	buckets := make([]DayBucket, r.Days)
	index := make(map[string]int, r.Days)
	for i := range buckets {
		d := first.AddDate(0, 0, i)
		key := d.Format(time.DateOnly)
		buckets[i] = DayBucket{Date: key, Label: d.Format("Mon")}
		index[key] = i
	}
	for _, c := range rows {
		i, ok := index[c.CreatedAt.UTC().Format(time.DateOnly)]
		if !ok {
			continue
		}
		buckets[i].Calls++
		if c.Status == calls.StatusCompleted {
			buckets[i].Answered++
		}
		if c.Outcome == calls.OutcomeInterested {
			buckets[i].Interested++
		}
	}
	return buckets, nil
}

// Outcomes is the outcome distribution over completed calls in the window.
// Percentages are of all completed calls, including those without an outcome.
func (s *Service) Outcomes(ctx context.Context, sc store.Scope, dateRange string) ([]OutcomeShare, error) {
	r, err := calls.ParseRange(dateRange)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListCalls(ctx, sc, Window{From: r.Since(s.now().UTC())})
	if err != nil {
		return nil, err
	}

	completed := 0
	counts := map[calls.Outcome]int{}
	for _, c := range rows {
		if c.Status != calls.StatusCompleted {
			continue
		}
		completed++
		if c.Outcome != "" {
			counts[c.Outcome]++
		}
	}

	out := make([]OutcomeShare, 0, len(counts))
	for o, n := range counts {
		out = append(out, OutcomeShare{Outcome: o, Count: n, Percentage: calls.Percent(n, completed)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Outcome < out[j].Outcome
	})
	return out, nil
}

// CampaignsPerformance reports lifetime call results for every campaign.
func (s *Service) CampaignsPerformance(ctx context.Context, sc store.Scope) ([]CampaignPerformance, error) {
	refs, err := s.repo.ListCampaigns(ctx, sc)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListCalls(ctx, sc, Window{})
	if err != nil {
		return nil, err
	}

	byCampaign := map[string]*tally{}
	for _, c := range rows {
		if c.CampaignID == "" {
			continue
		}
		t := byCampaign[c.CampaignID]
		if t == nil {
			t = &tally{}
			byCampaign[c.CampaignID] = t
		}
		t.add(c)
	}

	out := make([]CampaignPerformance, 0, len(refs))
	for _, ref := range refs {
		t := byCampaign[ref.ID]
		if t == nil {
			t = &tally{}
		}
		out = append(out, CampaignPerformance{
			CampaignID:     ref.ID,
			Name:           ref.Name,
			TotalCalls:     t.total,
			Answered:       t.completed,
			Interested:     t.interested,
			ConversionRate: calls.Percent(t.interested, t.total),
			CostPerLead:    costPerLead(t.costMinor, t.interested),
		})
	}
	return out, nil
}

type tally struct {
	total, completed, interested int
	completedSeconds             int
	costMinor                    int64
}

func (t *tally) add(c CallRow) {
	t.total++
	t.costMinor += c.CostMinor
	if c.Status == calls.StatusCompleted {
		t.completed++
		t.completedSeconds += c.DurationSeconds
	}
	if c.Outcome == calls.OutcomeInterested {
		t.interested++
	}
}

func (t *tally) avgDuration() int {
	if t.completed == 0 {
		return 0
	}
	return t.completedSeconds / t.completed
}

// clock formats seconds as m:ss.
func clock(seconds int) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// costPerLead is the spend in dollars per interested lead.
func costPerLead(costMinor int64, interested int) float64 {
	if interested == 0 {
		return 0
	}
	return math.Round(float64(costMinor)/float64(interested)) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
