package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/middleware"
	"masjid-display-server/internal/service"
	"masjid-display-server/pkg/response"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type DeviceHandler struct {
	service  *service.DeviceAuthService
	validate *validator.Validate
}

func NewDeviceHandler(service *service.DeviceAuthService) *DeviceHandler {
	return &DeviceHandler{
		service:  service,
		validate: validator.New(),
	}
}

// probeReply is the flat shape the display agents poll for. The field set
// is a wire contract; renderers key off authorized and needsRegistration.
type probeReply struct {
	Success bool `json:"success"`
	*domain.ProbeResponse
}

// Probe handles POST /device/auth.
func (h *DeviceHandler) Probe(w http.ResponseWriter, r *http.Request) {
	var req domain.ProbeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Probe(&req)
	if err != nil {
		response.InternalError(w, "Failed to check device authorization")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(probeReply{Success: true, ProbeResponse: resp})
}

// Register handles POST /device/register.
func (h *DeviceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if _, err := h.service.Register(&req); err != nil {
		response.InternalError(w, "Failed to register device")
		return
	}

	response.Message(w, http.StatusOK, "Device registered and awaiting approval")
}

// List handles GET /api/v1/devices.
func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List()
	if err != nil {
		response.InternalError(w, "Failed to list devices")
		return
	}

	response.Success(w, records)
}

// Decide handles POST /api/v1/devices/decide.
func (h *DeviceHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req domain.DecideDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request payload")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	if err := h.service.Decide(req.DeviceID, req.DisplayID, req.Outcome); err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(w, verr.Error())
		case errors.Is(err, service.ErrDeviceNotFound):
			response.NotFound(w, "Device record not found")
		default:
			response.InternalError(w, "Failed to update device status")
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"admin":     middleware.GetAdminID(r),
		"deviceId":  req.DeviceID,
		"displayId": req.DisplayID,
		"outcome":   req.Outcome,
	}).Info("device decision recorded")

	response.Message(w, http.StatusOK, "Device status updated")
}

// Delete handles DELETE /api/v1/devices/{deviceId}/{displayId}.
func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	deviceID := vars["deviceId"]
	displayID := vars["displayId"]
	if deviceID == "" || displayID == "" {
		response.BadRequest(w, "Device ID and display ID are required")
		return
	}

	if err := h.service.Delete(deviceID, displayID); err != nil {
		if errors.Is(err, service.ErrDeviceNotFound) {
			response.NotFound(w, "Device record not found")
			return
		}
		response.InternalError(w, "Failed to delete device record")
		return
	}

	response.Message(w, http.StatusOK, "Device record deleted")
}
