package backend

import (
	"context"
	"net/http"
	"time"
)

// Report is a free-form statistics document. Its keys depend on the endpoint.
type Report map[string]interface{}

// Metric is one named measurement.
type Metric struct {
	ID          int64     `json:"id,omitempty"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Value       float64   `json:"value"`
	Unit        string    `json:"unit,omitempty"`
	Timestamp   time.Time `json:"timestamp,omitempty"`
	Description string    `json:"description,omitempty"`
}

// StatisticsService reads the read-only /statistics resources.
type StatisticsService struct {
	c *Client
}

func (s *StatisticsService) report(ctx context.Context, path string) (Report, error) {
	rep := make(Report)
	return rep, s.c.Do(ctx, http.MethodGet, path, nil, &rep)
}

func (s *StatisticsService) Overview(ctx context.Context) (Report, error) {
	return s.report(ctx, "/statistics")
}

func (s *StatisticsService) Tasks(ctx context.Context) (Report, error) {
	return s.report(ctx, "/statistics/tasks")
}

func (s *StatisticsService) Users(ctx context.Context) (Report, error) {
	return s.report(ctx, "/statistics/users")
}

func (s *StatisticsService) Submissions(ctx context.Context) (Report, error) {
	return s.report(ctx, "/statistics/submissions")
}

func (s *StatisticsService) Performance(ctx context.Context) ([]Metric, error) {
	var metrics []Metric
	return metrics, s.c.Do(ctx, http.MethodGet, "/statistics/performance", nil, &metrics)
}
