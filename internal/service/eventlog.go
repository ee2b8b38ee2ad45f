package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"electrometer_acquisition/internal/models"
	"electrometer_acquisition/internal/repository"
)

type EventLogService struct {
	eventRepo repository.EventRepo
	runRepo   repository.RunRepo
}

func NewEventLogService(eventRepo repository.EventRepo, runRepo repository.RunRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, runRepo: runRepo}
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	return from, to, eventType, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.SessionEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}

func (s *EventLogService) ListRuns(ctx context.Context) ([]models.RunRecord, error) {
	return s.runRepo.List(ctx)
}
