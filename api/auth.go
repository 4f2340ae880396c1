package api

import (
	"net/http"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/helpers"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/google/uuid"
	"github.com/thedevsaddam/govalidator"
)

func Login(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.LoginOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.LoginRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	user, err := ctx.DB.GetUserLoginByEmail(opts.Email)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting user")
		return
	}

	if user == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.UserNotFound)
		return
	}

	if !helpers.AuthenticateHashedPassword(user.Password, opts.Password) {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.UserNotFound)
		return
	}

	user.Token, err = helpers.GenerateToken(user, ctx.Config.JWTSecret)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed generating token")
		return
	}

	w.WriteJSON(http.StatusOK, user, nil, "")
}

func SendRememberToken(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.SendRememberTokenOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.SendRememberTokenRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	user, err := ctx.DB.GetUserLoginByEmail(opts.Email)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting user")
		return
	}

	if user == nil {
		w.Write(http.StatusNotFound, nil, nil, middlewares.Responses.UserNotFound)
		return
	}

	token := uuid.New().String()
	if err := ctx.DB.InsertRememberToken(user.ID, token); err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed inserting token")
		return
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{"sent": true}, nil, "")
}

func UpdateUserPassword(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	var opts models.UpdateUserPasswordOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.UpdateUserPasswordRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	userID, err := ctx.DB.GetUserIDByRememberToken(opts.Email, opts.Token)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting token")
		return
	}

	if userID == 0 {
		w.WriteJSON(http.StatusNotFound, nil, nil, "invalid token")
		return
	}

	hashed, err := helpers.HashPassword(opts.Password)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed hashing password")
		return
	}

	if err := ctx.DB.UpdateUserPassword(userID, opts.Token, hashed); err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed updating password")
		return
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{"updated": true}, nil, "")
}
