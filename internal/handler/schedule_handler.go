package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"masjid-display-server/internal/domain"
	"masjid-display-server/internal/middleware"
	"masjid-display-server/internal/service"
	"masjid-display-server/pkg/response"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type ScheduleHandler struct {
	service *service.ScheduleService
}

func NewScheduleHandler(service *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Upload handles POST /api/v1/schedules/upload. The CSV comes either as a
// multipart "file" field or as the raw request body.
func (h *ScheduleHandler) Upload(w http.ResponseWriter, r *http.Request) {
	raw, err := readUpload(r)
	if err != nil {
		response.BadRequest(w, "Could not read upload")
		return
	}

	result, err := h.service.Ingest(raw)
	if err != nil {
		var verr *service.ValidationError
		var ierr *service.InsertError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(w, verr.Error())
		case errors.Is(err, service.ErrEmptyBatch):
			response.BadRequest(w, err.Error())
		case errors.As(err, &ierr):
			// Committed batches stay; the message carries the counts so
			// the operator can decide to re-upload.
			response.Error(w, http.StatusInternalServerError, ierr.Error())
		default:
			response.InternalError(w, "Failed to ingest schedule")
		}
		return
	}

	logrus.WithFields(logrus.Fields{
		"admin":   middleware.GetAdminID(r),
		"label":   result.Label,
		"records": result.RecordsInserted,
	}).Info("schedule replaced")

	response.Created(w, result)
}

// queryReply is the flat shape rendering layers consume.
type queryReply struct {
	Success     bool               `json:"success"`
	PrayerTimes domain.PrayerTimes `json:"prayerTimes"`
}

// Query handles GET /api/v1/schedules?label=&month=&day=.
func (h *ScheduleHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	label := strings.TrimSpace(q.Get("label"))
	monthStr := q.Get("month")
	dayStr := q.Get("day")
	if label == "" || monthStr == "" || dayStr == "" {
		response.BadRequest(w, "label, month and day are required")
		return
	}

	month, err := strconv.Atoi(monthStr)
	if err != nil {
		response.BadRequest(w, "month must be a number")
		return
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		response.BadRequest(w, "day must be a number")
		return
	}

	row, err := h.service.Resolve(label, month, day)
	if err != nil {
		if errors.Is(err, service.ErrScheduleNotFound) {
			response.NotFound(w, "No schedule for that date")
			return
		}
		response.InternalError(w, "Failed to look up schedule")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(queryReply{Success: true, PrayerTimes: row.Times()})
}

// Summary handles GET /api/v1/schedules/summary.
func (h *ScheduleHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.Summaries()
	if err != nil {
		response.InternalError(w, "Failed to summarize schedules")
		return
	}

	response.Success(w, summaries)
}

// Delete handles DELETE /api/v1/schedules/{label}.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	if label == "" {
		response.BadRequest(w, "Label is required")
		return
	}

	if err := h.service.DeleteLabel(label); err != nil {
		response.InternalError(w, "Failed to delete schedule")
		return
	}

	logrus.WithFields(logrus.Fields{
		"admin": middleware.GetAdminID(r),
		"label": label,
	}).Info("schedule deleted")

	response.Message(w, http.StatusOK, "Schedule deleted")
}

func readUpload(r *http.Request) (string, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			return "", err
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
