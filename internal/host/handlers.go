package host

import (
	"errors"
	"io"
	"net/http"

	"github.com/chrissnell/weatherface/internal/display"
	"github.com/chrissnell/weatherface/internal/engine"
)

type visibilityRequest struct {
	Visible *bool `json:"visible"`
}

type ambientRequest struct {
	Ambient *bool `json:"ambient"`
}

type lowBitRequest struct {
	LowBitAmbient *bool `json:"low_bit_ambient"`
}

type tapRequest struct {
	Type string `json:"type"`
}

type acceptedResponse struct {
	Accepted bool   `json:"accepted"`
	Event    string `json:"event"`
}

func (c *Controller) postVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if !c.decode(w, r, &req) {
		return
	}
	if req.Visible == nil {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "missing field: visible")
		return
	}
	c.accepted(w, r, "visibility", c.face.OnVisibilityChanged(*req.Visible))
}

func (c *Controller) postAmbient(w http.ResponseWriter, r *http.Request) {
	var req ambientRequest
	if !c.decode(w, r, &req) {
		return
	}
	if req.Ambient == nil {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "missing field: ambient")
		return
	}
	c.accepted(w, r, "ambient", c.face.OnAmbientModeChanged(*req.Ambient))
}

func (c *Controller) postLowBitAmbient(w http.ResponseWriter, r *http.Request) {
	var req lowBitRequest
	if !c.decode(w, r, &req) {
		return
	}
	if req.LowBitAmbient == nil {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "missing field: low_bit_ambient")
		return
	}
	c.accepted(w, r, "low-bit-ambient", c.face.OnLowBitAmbientDetected(*req.LowBitAmbient))
}

func (c *Controller) postTimeZone(w http.ResponseWriter, r *http.Request) {
	c.accepted(w, r, "timezone", c.face.OnTimeZoneChanged())
}

func (c *Controller) postTimeTick(w http.ResponseWriter, r *http.Request) {
	c.accepted(w, r, "time-tick", c.face.OnTimeTick())
}

func (c *Controller) postInsets(w http.ResponseWriter, r *http.Request) {
	var insets display.Insets
	if !c.decode(w, r, &insets) {
		return
	}
	if insets.ChinHeight < 0 {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "chin_height must not be negative")
		return
	}
	c.accepted(w, r, "insets", c.face.OnApplyWindowInsets(insets))
}

func (c *Controller) postTap(w http.ResponseWriter, r *http.Request) {
	// An empty body is a completed tap.
	var req tapRequest
	if err := c.formatter.DecodeRequest(r, &req); err != nil && !errors.Is(err, io.EOF) {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	tap, ok := display.ParseTapType(req.Type)
	if !ok {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "unknown tap type: "+req.Type)
		return
	}
	c.accepted(w, r, "tap", c.face.OnTap(tap))
}

func (c *Controller) getState(w http.ResponseWriter, r *http.Request) {
	st, err := c.face.Status(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, engine.ErrDestroyed) {
			status = http.StatusServiceUnavailable
		}
		c.formatter.WriteError(w, r, status, err.Error())
		return
	}
	c.formatter.WriteResponse(w, r, http.StatusOK, st)
}

func (c *Controller) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := c.formatter.DecodeRequest(r, v); err != nil {
		c.formatter.WriteError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (c *Controller) accepted(w http.ResponseWriter, r *http.Request, event string, ok bool) {
	if !ok {
		c.formatter.WriteError(w, r, http.StatusServiceUnavailable, engine.ErrDestroyed.Error())
		return
	}
	c.formatter.WriteResponse(w, r, http.StatusAccepted, acceptedResponse{Accepted: true, Event: event})
}
