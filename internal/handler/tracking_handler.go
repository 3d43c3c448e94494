// internal/handler/tracking_handler.go
package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/phishsim/internal/service"
)

// pixelGIF is a 1x1 transparent GIF.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x21, 0xf9, 0x04, 0x01, 0x00,
	0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

// TrackingServiceInterface records recipient interactions
type TrackingServiceInterface interface {
	RecordOpen(ctx context.Context, trackingID string, meta service.RequestMeta) (bool, error)
	RecordClick(ctx context.Context, trackingID string, meta service.RequestMeta) (bool, error)
	RecordSubmit(ctx context.Context, trackingID string, meta service.RequestMeta) (bool, error)
}

type TrackingHandler struct {
	Service TrackingServiceInterface
}

func NewTrackingHandler(svc TrackingServiceInterface) *TrackingHandler {
	return &TrackingHandler{Service: svc}
}

// TrackOpen always answers with the pixel, whatever happened to the event.
func (h *TrackingHandler) TrackOpen(w http.ResponseWriter, r *http.Request) {
	trackingID := chi.URLParam(r, "trackingID")
	if _, err := h.Service.RecordOpen(r.Context(), trackingID, requestMeta(r)); err != nil {
		log.Error().Err(err).Msg("failed to record open")
	}

	h.writePixel(w)
}

func (h *TrackingHandler) writePixel(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("Content-Length", strconv.Itoa(len(pixelGIF)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pixelGIF)
}

// TrackClick records the click and serves the credential capture page.
func (h *TrackingHandler) TrackClick(w http.ResponseWriter, r *http.Request) {
	// The route only admits digits. The id is echoed back, never looked up,
	// so it is kept as text and any length is accepted.
	campaignID := chi.URLParam(r, "campaignID")
	trackingID := chi.URLParam(r, "trackingID")

	if _, err := h.Service.RecordClick(r.Context(), trackingID, requestMeta(r)); err != nil {
		log.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to record click")
	}

	render(w, http.StatusOK, "landing_page.html", map[string]any{
		"CampaignID": campaignID,
		"TrackingID": trackingID,
	})
}

// Submit records the submission and sends the recipient to the education
// page. The posted form is never parsed or stored.
func (h *TrackingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	campaignID := chi.URLParam(r, "campaignID")
	trackingID := chi.URLParam(r, "trackingID")

	if _, err := h.Service.RecordSubmit(r.Context(), trackingID, requestMeta(r)); err != nil {
		log.Error().Err(err).Str("campaign_id", campaignID).Msg("failed to record submission")
	}

	http.Redirect(w, r, "/education", http.StatusSeeOther)
}

func (h *TrackingHandler) Education(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "education.html", nil)
}

func requestMeta(r *http.Request) service.RequestMeta {
	return service.RequestMeta{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// clientIP strips the port from RemoteAddr. middleware.RealIP has already
// rewritten it from X-Forwarded-For when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
