package handler

import (
	"net/http"

	"github.com/walleto-api/internal/application/trusteddevice"
)

type revokeDeviceRequest struct {
	DeviceToken string `json:"device_token" validate:"required"`
}

// DeviceHandler lists and revokes the caller's trusted devices.
type DeviceHandler struct {
	svc trusteddevice.Service
}

func NewDeviceHandler(svc trusteddevice.Service) *DeviceHandler { return &DeviceHandler{svc: svc} }

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	devices, err := h.svc.List(r.Context(), userID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (h *DeviceHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req revokeDeviceRequest
	if !decode(w, r, &req) {
		return
	}
	found, err := h.svc.Revoke(r.Context(), userID, req.DeviceToken)
	if err != nil {
		httpError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "device not found")
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Device revoked"})
}
