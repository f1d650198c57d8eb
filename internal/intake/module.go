package intake

import (
	apphttp "leadhook_backend/internal/http"
	"leadhook_backend/platform/config"
)

// ModuleConfig combines the config interfaces the intake module needs.
type ModuleConfig interface {
	config.HookConfig
	config.IntakeConfig
}

// Module is the intake bounded context implementing http.Module.
type Module struct {
	cfg     ModuleConfig
	handler *Handler
}

func NewModule(cfg ModuleConfig, service *Service) *Module {
	return &Module{
		cfg:     cfg,
		handler: NewHandler(service),
	}
}

func (m *Module) Name() string { return "intake" }

// RegisterRoutes mounts the hook route. The secret is a path segment, so
// auth happens in middleware before the body is touched.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Engine.POST("/hook/:secret", HookAuthMiddleware(m.cfg), m.handler.HandleSubmission)
}
