package intake

import (
	"context"
	"encoding/json"
	"net/http"

	"leadhook_backend/internal/abuse"
	"leadhook_backend/internal/bitrix"
	"leadhook_backend/internal/events"
	"leadhook_backend/platform/apperr"
	"leadhook_backend/platform/config"
	"leadhook_backend/platform/logger"
	"leadhook_backend/platform/phone"
	"leadhook_backend/platform/validator"
)

// CRMGateway is the slice of the Bitrix client the pipeline needs.
// Satisfied by bitrix.Client.
type CRMGateway interface {
	CreateLead(ctx context.Context, input bitrix.LeadInput) (*bitrix.CreateResult, error)
	Enrich(ctx context.Context, leadID int64, comment, startTime, endTime, phoneNumber string) error
}

// Guard admits or rejects a submission before it reaches the CRM.
// Satisfied by abuse.Guard.
type Guard interface {
	Admit(ctx context.Context, formName, token, clientIP string) (abuse.Verdict, error)
}

// SubmitResponse is the body returned to the submitting site.
type SubmitResponse struct {
	OK          bool            `json:"ok"`
	Bitrix      json.RawMessage `json:"bitrix,omitempty"`
	Message     string          `json:"message,omitempty"`
	RateLimited bool            `json:"rateLimited,omitempty"`
	MinutesLeft int             `json:"minutesLeft,omitempty"`
}

// SubmitResult pairs the response body with its HTTP status. Hard
// rejections are returned as errors instead.
type SubmitResult struct {
	Status   int
	Response SubmitResponse
}

// Service drives the submission pipeline.
type Service struct {
	cfg       config.IntakeConfig
	guard     Guard
	templates *Templates
	crm       CRMGateway
	bus       events.Bus
	val       *validator.Validator
	log       *logger.Logger
}

func NewService(cfg config.IntakeConfig, guard Guard, templates *Templates, crm CRMGateway, bus events.Bus, val *validator.Validator, log *logger.Logger) *Service {
	return &Service{
		cfg:       cfg,
		guard:     guard,
		templates: templates,
		crm:       crm,
		bus:       bus,
		val:       val,
		log:       log,
	}
}

// Submit runs the pipeline for one parsed submission. The rate limiter
// answers a soft 200 so the site widget shows the message instead of an
// error; every other rejection is a typed error.
func (s *Service) Submit(ctx context.Context, lead NormalizedLead, clientIP string) (SubmitResult, error) {
	if phone.IsBlocked(lead.Phone, s.cfg.GetBlockedPhonePrefixes()) {
		s.log.SubmissionRejected("blocked phone", lead.FormName, clientIP)
		return SubmitResult{}, apperr.Forbidden("Этот номер телефона заблокирован")
	}

	if err := s.val.Struct(lead); err != nil {
		return SubmitResult{}, apperr.Wrap(apperr.KindValidation, "submission fields out of bounds", err)
	}

	if s.cfg.StrictPhonePolicy() {
		if lead.Name == "" || lead.Phone == "" {
			s.log.SubmissionRejected("missing contact fields", lead.FormName, clientIP)
			return SubmitResult{}, apperr.Validation("Укажите имя и номер телефона")
		}
		strict, err := phone.Strict(lead.Phone)
		if err != nil {
			s.log.SubmissionRejected("phone format", lead.FormName, clientIP)
			return SubmitResult{}, apperr.Validation("Некорректный номер телефона")
		}
		lead.Phone = strict
	}

	verdict, err := s.guard.Admit(ctx, lead.FormName, lead.TurnstileToken, clientIP)
	if err != nil {
		s.log.SubmissionRejected("abuse guard", lead.FormName, clientIP)
		return SubmitResult{}, err
	}
	if verdict.RateLimited {
		return SubmitResult{
			Status: http.StatusOK,
			Response: SubmitResponse{
				OK:          true,
				Message:     verdict.Message,
				RateLimited: true,
				MinutesLeft: verdict.MinutesLeft,
			},
		}, nil
	}

	template := s.templates.Resolve(lead.FormName)
	comment := BuildCommentBlock(lead)

	created, err := s.crm.CreateLead(ctx, bitrix.LeadInput{
		Title:      template.Title,
		Name:       lead.Name,
		Phone:      lead.Phone,
		Comment:    comment,
		Source:     lead.Source,
		TrackingID: lead.YMClientID,
		OwnerID:    template.AssignedByID,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	if startTime, endTime, ok := ParseActivityWindow(lead.Date, lead.Time); ok {
		if err := s.crm.Enrich(ctx, created.LeadID, comment, startTime, endTime, lead.Phone); err != nil {
			s.log.UpstreamError("bitrix", "lead enrichment", err)
		}
	} else if err := s.crm.Enrich(ctx, created.LeadID, comment, "", "", lead.Phone); err != nil {
		s.log.UpstreamError("bitrix", "lead enrichment", err)
	}

	if err := s.bus.PublishSync(ctx, events.LeadCaptured{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      created.LeadID,
		Title:       template.Title,
		FormName:    lead.FormName,
		Name:        lead.Name,
		Phone:       lead.Phone,
		Source:      lead.Source,
		CompanyName: lead.CompanyName,
		Activity:    lead.Activity,
		Comment:     lead.Comment,
		Date:        lead.Date,
		Time:        lead.Time,
	}); err != nil {
		s.log.Error("lead notification fan-out failed", "lead_id", created.LeadID, "error", err)
	}

	return SubmitResult{
		Status:   http.StatusOK,
		Response: SubmitResponse{OK: true, Bitrix: created.Raw},
	}, nil
}
