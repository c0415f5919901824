package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/luikyv/go-introspect/pkg/goidc"
	"go.uber.org/zap"
)

type Context struct {
	Response http.ResponseWriter
	Request  *http.Request
	*Configuration
}

func NewContext(
	w http.ResponseWriter,
	r *http.Request,
	config *Configuration,
) Context {
	return Context{
		Configuration: config,
		Response:      w,
		Request:       r,
	}
}

func Handler(
	config *Configuration,
	exec func(ctx Context),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		exec(NewContext(w, r, config))
	}
}

// Log returns the configured logger annotated with the request id, if any.
func (ctx Context) Log() *zap.Logger {
	logger := ctx.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if id := middleware.GetReqID(ctx.Context()); id != "" {
		logger = logger.With(zap.String("request_id", id))
	}
	return logger
}

//---------------------------------------- CRUD ----------------------------------------//

func (ctx Context) Client(id string) (*goidc.Client, error) {
	for _, staticClient := range ctx.StaticClients {
		if staticClient.ID == id {
			return staticClient, nil
		}
	}

	return ctx.ClientManager.Client(ctx.Context(), id)
}

func (ctx Context) AccessToken(id string) (*goidc.AccessToken, error) {
	return ctx.AccessTokenManager.AccessToken(ctx.Context(), id)
}

//---------------------------------------- HTTP Utils ----------------------------------------//

func (ctx Context) BaseURL() string {
	return ctx.Issuer + ctx.EndpointPrefix
}

// FormParam returns the value of a parameter informed either in the query or
// in a form-url-encoded body.
func (ctx Context) FormParam(param string) string {
	if err := ctx.Request.ParseForm(); err != nil {
		return ""
	}

	return ctx.Request.Form.Get(param)
}

func (ctx Context) WriteStatus(status int) {
	// Check if the request was terminated before writing anything.
	select {
	case <-ctx.Context().Done():
		return
	default:
	}

	ctx.Response.WriteHeader(status)
}

// Write responds the current request writing obj as JSON.
func (ctx Context) Write(obj any, status int) error {
	// Check if the request was terminated before writing anything.
	select {
	case <-ctx.Context().Done():
		return nil
	default:
	}

	ctx.Response.Header().Set(goidc.HeaderContentType, goidc.ContentTypeJSON)
	ctx.Response.WriteHeader(status)
	if err := json.NewEncoder(ctx.Response).Encode(obj); err != nil {
		return err
	}

	return nil
}

// WriteError responds with the JSON representation of a [goidc.Error].
// Any other error results in an empty internal server error response.
func (ctx Context) WriteError(err error) {
	var oidcErr goidc.Error
	if !errors.As(err, &oidcErr) {
		ctx.WriteStatus(http.StatusInternalServerError)
		return
	}

	if err := ctx.Write(oidcErr, oidcErr.StatusCode()); err != nil {
		ctx.Log().Error("could not write the error response", zap.Error(err))
	}
}

//---------------------------------------- context.Context ----------------------------------------//

func (ctx Context) Context() context.Context {
	return ctx.Request.Context()
}

func (ctx Context) Deadline() (deadline time.Time, ok bool) {
	return ctx.Context().Deadline()
}

func (ctx Context) Done() <-chan struct{} {
	return ctx.Context().Done()
}

func (ctx Context) Err() error {
	return ctx.Context().Err()
}

func (ctx Context) Value(key any) any {
	return ctx.Context().Value(key)
}
