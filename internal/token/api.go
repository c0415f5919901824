package token

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/luikyv/go-introspect/internal/oidc"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// RegisterHandlers serves the introspection endpoint for both GET and POST.
func RegisterHandlers(router chi.Router, config *oidc.Configuration) {
	path := config.EndpointPrefix + config.EndpointIntrospection
	router.Get(path, oidc.Handler(config, handleIntrospection))
	router.Post(path, oidc.Handler(config, handleIntrospection))
}

func handleIntrospection(ctx oidc.Context) {
	start := time.Now()
	spanCtx, span := ctx.Tracer.Start(ctx.Context(), "token.introspect")
	defer span.End()
	ctx.Request = ctx.Request.WithContext(spanCtx)

	res := introspect(ctx)

	span.SetAttributes(attribute.String("introspect.outcome", res.outcome()))
	if fault, ok := res.(faultResult); ok {
		span.RecordError(fault.err)
		span.SetStatus(codes.Error, "introspection failed")
	}
	logResult(ctx, res)
	ctx.Metrics.Observe(res.outcome(), time.Since(start))

	writeResult(ctx, res)
}

func writeResult(ctx oidc.Context, res result) {
	var err error
	switch r := res.(type) {
	case activeResult:
		err = ctx.Write(r.resp, http.StatusOK)
	case inactiveResult:
		err = ctx.Write(goidc.InactiveResponse{Active: false}, http.StatusOK)
	case clientErrorResult:
		ctx.Response.Header().Set(goidc.HeaderWWWAuthenticate, `Basic realm="introspection"`)
		ctx.WriteError(r.err)
	case faultResult:
		ctx.WriteStatus(http.StatusInternalServerError)
	}

	if err != nil {
		ctx.Log().Error("could not write the introspection response", zap.Error(err))
	}
}

func logResult(ctx oidc.Context, res result) {
	logger := ctx.Log()
	switch r := res.(type) {
	case activeResult:
		logger.Debug("token introspected",
			zap.String("client_id", r.resp.ClientID),
			zap.String("sub", r.resp.Subject))
	case inactiveResult:
		fields := []zap.Field{zap.String("reason", r.reason.String())}
		if r.clientID != "" {
			fields = append(fields, zap.String("client_id", r.clientID))
		}
		if r.cause != nil {
			fields = append(fields, zap.Error(r.cause))
		}
		logger.Debug("token reported inactive", fields...)
	case clientErrorResult:
		logger.Info("introspection rejected", zap.Error(r.err))
	case faultResult:
		logger.Error("introspection failed",
			zap.String("method", ctx.Request.Method),
			zap.String("path", ctx.Request.URL.Path),
			zap.Error(r.err))
	}
}
