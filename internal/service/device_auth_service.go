package service

import (
	"errors"
	"fmt"
	"time"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/repository"

	"github.com/sirupsen/logrus"
)

// DeviceAuthService is the server-side source of truth for the pairing
// state machine: unregistered -> pending -> authorized|rejected. It never
// promotes a device on its own; decisions come from an admin.
type DeviceAuthService struct {
	repo  repository.DeviceRepository
	pairs *keyedMutex
}

func NewDeviceAuthService(repo repository.DeviceRepository) *DeviceAuthService {
	return &DeviceAuthService{
		repo:  repo,
		pairs: newKeyedMutex(),
	}
}

func pairKey(deviceID, displayID string) string {
	return deviceID + ":" + displayID
}

// Probe reports the pair's current status. An unseen pair is reported as
// unregistered and no record is created: probing alone must never pair an
// unknown device.
func (s *DeviceAuthService) Probe(req *domain.ProbeRequest) (*domain.ProbeResponse, error) {
	record, err := s.repo.FindByPair(req.DeviceID, req.DisplayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &domain.ProbeResponse{
				Authorized:        false,
				NeedsRegistration: true,
				Status:            domain.StatusUnregistered,
			}, nil
		}
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	// Best effort; a failed touch must not break the probe.
	if err := s.repo.UpdateLastSeen(req.DeviceID, req.DisplayID); err != nil {
		logrus.Warnf("failed to touch last_seen_at for %s/%s: %v", req.DeviceID, req.DisplayID, err)
	}

	return &domain.ProbeResponse{
		Authorized:        record.Status == domain.StatusAuthorized,
		NeedsRegistration: false,
		Status:            record.Status,
		DeviceName:        record.DeviceName,
	}, nil
}

// Register creates the record in pending state, or refreshes name and
// metadata if the pair already exists. It never reverts a decided status:
// an authorized display that re-registers stays authorized. Safe to retry
// concurrently; the pair can only ever hold one record.
func (s *DeviceAuthService) Register(req *domain.RegisterDeviceRequest) (*domain.RegisterDeviceResponse, error) {
	unlock := s.pairs.lock(pairKey(req.DeviceID, req.DisplayID))
	defer unlock()

	record, err := s.repo.FindByPair(req.DeviceID, req.DisplayID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("register failed: %w", err)
	}

	if record == nil {
		now := time.Now()
		err := s.repo.Create(&domain.DeviceRecord{
			DeviceID:         req.DeviceID,
			DisplayID:        req.DisplayID,
			DeviceName:       req.DeviceName,
			Status:           domain.StatusPending,
			UserAgent:        req.UserAgent,
			ScreenResolution: req.ScreenResolution,
			FirstSeenAt:      now,
			LastSeenAt:       now,
		})
		if err == nil {
			return &domain.RegisterDeviceResponse{Status: domain.StatusPending}, nil
		}
		// Lost a cross-process race; the record exists now, fall through
		// to the idempotent refresh.
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("register failed: %w", err)
		}
		record, err = s.repo.FindByPair(req.DeviceID, req.DisplayID)
		if err != nil {
			return nil, fmt.Errorf("register failed: %w", err)
		}
	}

	if err := s.repo.UpdateMetadata(req.DeviceID, req.DisplayID, req.DeviceName, req.UserAgent, req.ScreenResolution); err != nil {
		return nil, fmt.Errorf("register failed: %w", err)
	}

	return &domain.RegisterDeviceResponse{Status: record.Status}, nil
}

// Decide is the admin-only transition. It overwrites whatever state the
// pair is in, terminal or not: an explicit operator override always wins.
func (s *DeviceAuthService) Decide(deviceID, displayID, outcome string) error {
	if outcome != domain.StatusAuthorized && outcome != domain.StatusRejected {
		return &ValidationError{Message: fmt.Sprintf("outcome must be %s or %s", domain.StatusAuthorized, domain.StatusRejected)}
	}

	unlock := s.pairs.lock(pairKey(deviceID, displayID))
	defer unlock()

	if err := s.repo.UpdateStatus(deviceID, displayID, outcome); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("decide failed: %w", err)
	}
	return nil
}

func (s *DeviceAuthService) List() ([]*domain.DeviceRecord, error) {
	return s.repo.List()
}

// Delete removes a pair's record entirely. The next probe from that device
// starts the pairing flow over.
func (s *DeviceAuthService) Delete(deviceID, displayID string) error {
	unlock := s.pairs.lock(pairKey(deviceID, displayID))
	defer unlock()

	if err := s.repo.Delete(deviceID, displayID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrDeviceNotFound
		}
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}
