package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

type InsertEventOpts struct {
	Title         string  `json:"title"`
	Venue         string  `json:"venue"`
	StartDateTime string  `json:"start_date_time"`
	EndDateTime   string  `json:"end_date_time"`
	TicketPrice   float64 `json:"ticket_price"`
	Capacity      int     `json:"capacity"`
}

var InsertEventRules = govalidator.MapData{
	"title":           []string{"required"},
	"venue":           []string{"required"},
	"start_date_time": []string{"required", "datetime_RFC3339"},
	"end_date_time":   []string{"required", "datetime_RFC3339"},
	"ticket_price":    []string{"required", "float"},
	"capacity":        []string{"numeric"},
}

type GetEventsOpts struct {
	Date      string `schema:"date"`
	UserIDs   []int  `schema:"user_ids"`
	LimitFrom int    `schema:"limit_from"`
	LimitTo   int    `schema:"limit_to"`
}

var GetEventsRules = govalidator.MapData{
	"date":       []string{"date_ISO8601"},
	"user_ids":   []string{"array_int"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric"},
}

type Event struct {
	ID            int       `json:"id,omitempty"`
	Title         string    `json:"title,omitempty"`
	Venue         string    `json:"venue,omitempty"`
	User          *User     `json:"user,omitempty"`
	StartDateTime time.Time `json:"start_date_time"`
	EndDateTime   time.Time `json:"end_date_time"`
	TicketPrice   float64   `json:"ticket_price"`
	Capacity      int       `json:"capacity"`
	Attendees     int       `json:"attendees"`
	Created       time.Time `json:"created"`
	Updated       time.Time `json:"updated"`
}

type EventsStruct struct {
	Events []Event `json:"events"`
	Total  int     `json:"total"`
}
