package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"masjid-display-server/internal/config"
	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/handler"
	"masjid-display-server/internal/repository"
	"masjid-display-server/internal/service"
)

type stubScheduleRepo struct {
	rows map[string]*domain.ScheduleRow
}

func (s *stubScheduleRepo) FindByDate(label string, month, day int) (*domain.ScheduleRow, error) {
	if row, ok := s.rows[label]; ok && row.Month == month && row.Day == day {
		return row, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubScheduleRepo) ListByLabel(label string) ([]*domain.ScheduleRow, error) { return nil, nil }
func (s *stubScheduleRepo) ListAll() ([]*domain.ScheduleRow, error)                { return nil, nil }
func (s *stubScheduleRepo) DeleteByLabel(label string) error                        { return nil }
func (s *stubScheduleRepo) InsertBatch(rows []*domain.ScheduleRow) error            { return nil }

type stubDeviceRepo struct{}

func (s *stubDeviceRepo) Create(record *domain.DeviceRecord) error { return nil }
func (s *stubDeviceRepo) FindByPair(deviceID, displayID string) (*domain.DeviceRecord, error) {
	return nil, repository.ErrNotFound
}
func (s *stubDeviceRepo) List() ([]*domain.DeviceRecord, error)           { return nil, nil }
func (s *stubDeviceRepo) UpdateLastSeen(deviceID, displayID string) error { return nil }
func (s *stubDeviceRepo) UpdateStatus(deviceID, displayID, status string) error {
	return nil
}
func (s *stubDeviceRepo) UpdateMetadata(deviceID, displayID, deviceName, userAgent, screenResolution string) error {
	return nil
}
func (s *stubDeviceRepo) Delete(deviceID, displayID string) error { return nil }

type stubPreviewTokenRepo struct{}

func (s *stubPreviewTokenRepo) Create(token *domain.PreviewToken) error { return nil }
func (s *stubPreviewTokenRepo) FindByHash(tokenHash string) (*domain.PreviewToken, error) {
	return nil, repository.ErrNotFound
}
func (s *stubPreviewTokenRepo) Revoke(id string) error { return nil }
func (s *stubPreviewTokenRepo) Delete(id string) error { return nil }

func newTestRouter() http.Handler {
	cfg := &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret"},
		CORS: config.CORSConfig{
			AllowedOrigins: "*",
			AllowedMethods: "GET,POST,DELETE,OPTIONS",
			AllowedHeaders: "Content-Type,Authorization",
		},
	}

	scheduleRepo := &stubScheduleRepo{rows: map[string]*domain.ScheduleRow{
		"Main": {Label: "Main", Month: 3, Day: 15, Fajr: "05:10", Isha: "19:25"},
	}}

	deviceHandler := handler.NewDeviceHandler(service.NewDeviceAuthService(&stubDeviceRepo{}))
	scheduleHandler := handler.NewScheduleHandler(service.NewScheduleService(scheduleRepo, 100, time.Minute))
	previewHandler := handler.NewPreviewHandler(service.NewPreviewTokenService(&stubPreviewTokenRepo{}, 15*time.Minute))

	return newRouter(cfg, deviceHandler, scheduleHandler, previewHandler)
}

// The schedule query is the rendering layer's read path; like the device
// protocol it must work without admin credentials.
func TestRouterScheduleQueryIsPublic(t *testing.T) {
	router := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/schedules?label=Main&month=3&day=15", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without credentials, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "prayerTimes") {
		t.Errorf("expected prayer times payload, got %s", rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/schedules?label=Main&month=3&day=16", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown date, got %d", rec.Code)
	}
}

func TestRouterDeviceProtocolIsPublic(t *testing.T) {
	router := newTestRouter()

	body := strings.NewReader(`{"deviceId":"d1","displayId":"disp1"}`)
	req := httptest.NewRequest(http.MethodPost, "/device/auth", body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 without credentials, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "needsRegistration") {
		t.Errorf("expected probe payload, got %s", rec.Body.String())
	}
}

func TestRouterAdminAPIRequiresToken(t *testing.T) {
	router := newTestRouter()

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/devices"},
		{http.MethodGet, "/api/v1/schedules/summary"},
		{http.MethodDelete, "/api/v1/schedules/Main"},
		{http.MethodPost, "/api/v1/schedules/upload"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401 without a token, got %d", tc.method, tc.path, rec.Code)
		}
	}
}
