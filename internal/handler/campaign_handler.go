// internal/handler/campaign_handler.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
	"github.com/rs/zerolog/log"

	appErrors "github.com/unclebandit/phishsim/internal/errors"
	"github.com/unclebandit/phishsim/internal/model"
	"github.com/unclebandit/phishsim/internal/service"
)

// CampaignServiceInterface is what the campaign pages need from the service layer
type CampaignServiceInterface interface {
	CreateCampaign(ctx context.Context, in service.CreateCampaignInput) (*model.DispatchReport, error)
	Dashboard(ctx context.Context) ([]model.CampaignWithStats, error)
	GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*service.CampaignDetails, error)
}

// CampaignHandler holds the dependencies for campaign-related HTTP handlers
type CampaignHandler struct {
	Service   CampaignServiceInterface
	Templates []service.EmailTemplate
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(svc CampaignServiceInterface, catalog *service.TemplateCatalog) *CampaignHandler {
	return &CampaignHandler{
		Service:   svc,
		Templates: catalog.List(),
	}
}

type newCampaignForm struct {
	Name     string `schema:"name"`
	Template string `schema:"template"`
	Emails   string `schema:"emails"`
}

type newCampaignPage struct {
	Form      newCampaignForm
	Templates []service.EmailTemplate
	Error     string
}

var formDecoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

// Dashboard lists campaigns with their engagement rates
func (h *CampaignHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Service.Dashboard(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("❌ failed to load dashboard")
		http.Error(w, "failed to load campaigns", http.StatusInternalServerError)
		return
	}
	render(w, http.StatusOK, "dashboard.html", map[string]any{"Campaigns": rows})
}

// NewCampaignForm shows the campaign creation form
func (h *CampaignHandler) NewCampaignForm(w http.ResponseWriter, r *http.Request) {
	render(w, http.StatusOK, "new_campaign.html", newCampaignPage{Templates: h.Templates})
}

// CreateCampaign stores the campaign, sends its emails and redirects to the dashboard
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}
	var form newCampaignForm
	if err := formDecoder.Decode(&form, r.PostForm); err != nil {
		http.Error(w, "invalid form: "+err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.Service.CreateCampaign(r.Context(), service.CreateCampaignInput{
		Name:          form.Name,
		TemplateName:  form.Template,
		Recipients:    service.ParseRecipients(form.Emails),
		RawRecipients: form.Emails,
	})
	if err != nil {
		var verr *appErrors.ValidationError
		if errors.As(err, &verr) {
			render(w, http.StatusBadRequest, "new_campaign.html", newCampaignPage{
				Form:      form,
				Templates: h.Templates,
				Error:     verr.Error(),
			})
			return
		}
		log.Error().Err(err).Msg("❌ failed to create campaign")
		http.Error(w, "failed to create campaign", http.StatusInternalServerError)
		return
	}

	log.Info().Int("campaign_id", report.CampaignID).Int("sent", report.Sent).Int("failed", report.Failed).Msg("✅ campaign dispatched")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetCampaignHandlerWithStats returns one campaign with stats and results as JSON
func (h *CampaignHandler) GetCampaignHandlerWithStats(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "invalid campaign id", http.StatusBadRequest)
		return
	}

	details, err := h.Service.GetCampaignDetailsWithStats(r.Context(), id)
	if err != nil {
		if appErrors.IsNotFound(err) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		log.Error().Err(err).Int("campaign_id", id).Msg("❌ failed to fetch campaign")
		http.Error(w, "failed to fetch campaign", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(details)
}
