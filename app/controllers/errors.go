package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"blogpress/app/auth"
	"blogpress/app/logging"
	"blogpress/app/repositories"
	"blogpress/app/validation"
)

// Flash texts shown after a redirect.
const (
	FlashAlreadyRegistered = "You've already signed up with that email, log in instead!"
	FlashEmailNotFound     = "That email does not exist, please try again."
	FlashIncorrectPassword = "Password incorrect, please try again."
	FlashLoginToComment    = "You need to login or register to comment."
)

// respondError maps service errors that have no form to re-render.
func (rd *Renderer) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		rd.NotFound(w, r)
	case errors.Is(err, auth.ErrUnauthenticated):
		rd.flashes.Add(w, r, FlashLoginToComment)
		rd.redirect(w, r, "/login")
	case errors.Is(err, auth.ErrForbidden):
		rd.Forbidden(w, r)
	default:
		var verr *validation.Error
		if errors.As(err, &verr) {
			rd.renderError(w, r, http.StatusUnprocessableEntity, verr.Error())
			return
		}
		rd.serverError(w, r, err)
	}
}

func (rd *Renderer) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	rd.renderError(w, r, http.StatusInternalServerError, "Something went wrong.")
}

// NotFound renders the 404 page.
func (rd *Renderer) NotFound(w http.ResponseWriter, r *http.Request) {
	rd.renderError(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}

// Forbidden renders the 403 page.
func (rd *Renderer) Forbidden(w http.ResponseWriter, r *http.Request) {
	rd.renderError(w, r, http.StatusForbidden, "You are not allowed to do that.")
}

// fieldErrors splits err into per-field messages for a form, or returns false
// when err is not a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *validation.Error
	if !errors.As(err, &verr) {
		return nil, false
	}
	return verr.FieldMessages(), true
}

// routeID reads the {id} route variable. Non-numeric IDs cannot match a record.
func routeID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}
