package discovery

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.uber.org/zap"
)

func RegisterHandlers(router chi.Router, config *oidc.Configuration) {
	router.Get(config.EndpointPrefix+goidc.EndpointWellKnown, oidc.Handler(config, handleWellKnown))
}

func handleWellKnown(ctx oidc.Context) {
	if err := ctx.Write(serverMetadata(ctx), http.StatusOK); err != nil {
		ctx.Log().Error("could not write the server metadata", zap.Error(err))
	}
}
