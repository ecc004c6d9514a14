package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/repository"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
)

// requiredColumns is the fixed upload contract: exactly these nine
// columns, any order, case-insensitive.
var requiredColumns = []string{
	"label", "month", "day",
	"fajr", "sunrise", "dhuhr", "asr", "maghrib", "isha",
}

type ScheduleService struct {
	repo      repository.ScheduleRepository
	cache     *ttlcache.Cache[string, *domain.ScheduleRow]
	batchSize int
	labels    *keyedMutex
}

func NewScheduleService(repo repository.ScheduleRepository, batchSize int, cacheTTL time.Duration) *ScheduleService {
	if batchSize <= 0 {
		batchSize = 100
	}
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *domain.ScheduleRow](cacheTTL),
		ttlcache.WithDisableTouchOnHit[string, *domain.ScheduleRow](),
	)
	// The janitor evicts expired entries; without it, rows for dates
	// queried once would sit in memory until the label is replaced.
	go cache.Start()

	return &ScheduleService{
		repo:      repo,
		cache:     cache,
		batchSize: batchSize,
		labels:    newKeyedMutex(),
	}
}

// Ingest replaces a label's whole row set from one comma-separated upload.
// The batch label is taken from the first valid data row; rows missing
// label, month or day are skipped with a warning. Batches committed before
// a failing insert are not rolled back; the InsertError reports how many
// rows made it.
func (s *ScheduleService) Ingest(raw string) (*domain.IngestResult, error) {
	rows, err := parseScheduleCSV(raw)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	label := rows[0].Label
	if foreign := countForeignLabels(rows, label); foreign > 0 {
		logrus.Warnf("schedule upload for %q carries %d rows with other labels; batch label comes from the first row", label, foreign)
	}

	rows = dedupeRows(rows)

	unlock := s.labels.lock(label)
	defer unlock()

	// A failed delete may just mean a first-time upload; keep going.
	if err := s.repo.DeleteByLabel(label); err != nil {
		logrus.Warnf("pre-insert delete for label %q failed: %v", label, err)
	}

	inserted := 0
	for start := 0; start < len(rows); start += s.batchSize {
		end := start + s.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if err := s.repo.InsertBatch(rows[start:end]); err != nil {
			s.invalidateLabel(label)
			return nil, &InsertError{
				Label:     label,
				Requested: len(rows),
				Inserted:  inserted,
				Err:       err,
			}
		}
		inserted += end - start
	}

	s.invalidateLabel(label)

	return &domain.IngestResult{
		Label:           label,
		RecordsInserted: inserted,
	}, nil
}

// Resolve returns the exact row for (label, month, day). No nearest-day
// fallback, no timezone handling: the caller decides what "today" means.
func (s *ScheduleService) Resolve(label string, month, day int) (*domain.ScheduleRow, error) {
	key := cacheKey(label, month, day)
	if item := s.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	row, err := s.repo.FindByDate(label, month, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}

	s.cache.Set(key, row, ttlcache.DefaultTTL)
	return row, nil
}

// DeleteLabel removes a label's entire row set. Unlike the pre-insert
// delete inside Ingest, a failure here is surfaced to the caller.
func (s *ScheduleService) DeleteLabel(label string) error {
	unlock := s.labels.lock(label)
	defer unlock()

	if err := s.repo.DeleteByLabel(label); err != nil {
		return err
	}
	s.invalidateLabel(label)
	return nil
}

// Summaries groups the stored rows per label. Derived, never stored.
func (s *ScheduleService) Summaries() ([]*domain.ScheduleSummary, error) {
	rows, err := s.repo.ListAll()
	if err != nil {
		return nil, err
	}

	byLabel := make(map[string]*domain.ScheduleSummary)
	for _, row := range rows {
		summary, ok := byLabel[row.Label]
		if !ok {
			summary = &domain.ScheduleSummary{Label: row.Label}
			byLabel[row.Label] = summary
		}
		summary.TotalDays++
		if row.CreatedAt.After(summary.MostRecentCreatedAt) {
			summary.MostRecentCreatedAt = row.CreatedAt
		}
	}

	out := make([]*domain.ScheduleSummary, 0, len(byLabel))
	for _, summary := range byLabel {
		out = append(out, summary)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })

	return out, nil
}

func cacheKey(label string, month, day int) string {
	return fmt.Sprintf("%s|%d|%d", label, month, day)
}

func (s *ScheduleService) invalidateLabel(label string) {
	prefix := label + "|"
	var stale []string
	s.cache.Range(func(item *ttlcache.Item[string, *domain.ScheduleRow]) bool {
		if strings.HasPrefix(item.Key(), prefix) {
			stale = append(stale, item.Key())
		}
		return true
	})
	for _, key := range stale {
		s.cache.Delete(key)
	}
}

func parseScheduleCSV(raw string) ([]*domain.ScheduleRow, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, &ValidationError{Message: "upload is missing a header row"}
	}

	index := make(map[string]int, len(header))
	found := make([]string, 0, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		index[name] = i
		found = append(found, name)
	}

	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &ValidationError{
			Message:      fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
			FoundColumns: found,
		}
	}

	now := time.Now()
	var rows []*domain.ScheduleRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logrus.Warnf("skipping unparsable row %d: %v", line, err)
			continue
		}

		label := field(record, index["label"])
		monthStr := field(record, index["month"])
		dayStr := field(record, index["day"])
		if label == "" || monthStr == "" || dayStr == "" {
			logrus.Warnf("skipping row %d: label, month and day are required", line)
			continue
		}

		month, err := strconv.Atoi(monthStr)
		if err != nil {
			logrus.Warnf("skipping row %d: month %q is not a number", line, monthStr)
			continue
		}
		day, err := strconv.Atoi(dayStr)
		if err != nil {
			logrus.Warnf("skipping row %d: day %q is not a number", line, dayStr)
			continue
		}

		rows = append(rows, &domain.ScheduleRow{
			Label:     label,
			Month:     month,
			Day:       day,
			Fajr:      field(record, index["fajr"]),
			Sunrise:   field(record, index["sunrise"]),
			Dhuhr:     field(record, index["dhuhr"]),
			Asr:       field(record, index["asr"]),
			Maghrib:   field(record, index["maghrib"]),
			Isha:      field(record, index["isha"]),
			CreatedAt: now,
		})
	}

	return rows, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// dedupeRows keeps the last occurrence per (label, month, day); the store
// holds at most one row per key, so an in-file duplicate would otherwise
// fail the whole batch.
func dedupeRows(rows []*domain.ScheduleRow) []*domain.ScheduleRow {
	last := make(map[string]int, len(rows))
	for i, row := range rows {
		last[cacheKey(row.Label, row.Month, row.Day)] = i
	}
	if len(last) == len(rows) {
		return rows
	}

	logrus.Warnf("schedule upload contains %d duplicate dates; keeping the last occurrence of each", len(rows)-len(last))
	out := make([]*domain.ScheduleRow, 0, len(last))
	for i, row := range rows {
		if last[cacheKey(row.Label, row.Month, row.Day)] == i {
			out = append(out, row)
		}
	}
	return out
}

func countForeignLabels(rows []*domain.ScheduleRow, label string) int {
	n := 0
	for _, row := range rows {
		if row.Label != label {
			n++
		}
	}
	return n
}
