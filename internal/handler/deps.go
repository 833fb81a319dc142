package handler

import (
	"bookshelf/internal/app/service"
	"bookshelf/internal/configs"
	"bookshelf/internal/pkg/auth"
)

// AppDeps carries what the HTTP layer needs.
type AppDeps struct {
	Config        *configs.AppConfig
	Service       *service.Service
	Authenticator *auth.Authenticator
}
