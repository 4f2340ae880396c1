package api

import (
	"net/http"
	"time"

	"github.com/eliote-geeks/reveilartist-sub003/config"
	"github.com/eliote-geeks/reveilartist-sub003/middlewares"
	"github.com/eliote-geeks/reveilartist-sub003/models"
	"github.com/gorilla/schema"
	"github.com/mitchellh/mapstructure"
	"github.com/thedevsaddam/govalidator"
)

func InsertEvent(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	userInfo := models.InfoUser{}
	mapstructure.Decode(r.Context().Value("user"), &userInfo)

	if !userInfo.IsArtist && !userInfo.IsAdmin {
		w.Write(http.StatusForbidden, nil, nil, middlewares.Responses.InvalidRoles)
		return
	}

	var opts models.InsertEventOpts
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.InsertEventRules,
		Data:    &opts,
	}
	v := govalidator.New(validatorOpts)
	errs := v.ValidateJSON()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	startDateTime, err := time.Parse(time.RFC3339, opts.StartDateTime)
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing start date time")
		return
	}
	endDateTime, err := time.Parse(time.RFC3339, opts.EndDateTime)
	if err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed parsing end date time")
		return
	}

	if endDateTime.Before(startDateTime) {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "end time can't be before start time")
		return
	}

	if endDateTime.Before(time.Now()) {
		w.WriteJSON(http.StatusBadRequest, nil, nil, "event is already finished")
		return
	}

	id, err := ctx.DB.InsertEvent(userInfo.ID, &opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed inserting event")
		return
	}

	w.WriteJSON(http.StatusOK, map[string]interface{}{"id": id}, nil, "")
}

func GetEvents(ctx *config.AppContext, w *middlewares.ResponseWriter, r *http.Request) {
	validatorOpts := govalidator.Options{
		Request: r,
		Rules:   models.GetEventsRules,
	}
	v := govalidator.New(validatorOpts)
	errs := v.Validate()
	if len(errs) > 0 {
		w.Write(http.StatusBadRequest, errs, nil, middlewares.Responses.FailedValidations)
		return
	}

	var opts models.GetEventsOpts
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if err := decoder.Decode(&opts, r.URL.Query()); err != nil {
		w.WriteJSON(http.StatusBadRequest, nil, err, "failed decoding query params")
		return
	}

	events, err := ctx.DB.GetEvents(&opts)
	if err != nil {
		w.WriteJSON(http.StatusInternalServerError, nil, err, "failed getting events")
		return
	}

	w.WriteJSON(http.StatusOK, events, nil, "")
}
