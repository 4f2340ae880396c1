package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

type InsertSoundOpts struct {
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	FileURL  string  `json:"file_url"`
	CoverURL string  `json:"cover_url"`
}

var InsertSoundRules = govalidator.MapData{
	"title":    []string{"required"},
	"category": []string{"required"},
	"price":    []string{"required", "float"},
	"file_url": []string{"required", "url"},
}

type GetSoundsOpts struct {
	UserIDs   []int  `schema:"user_ids"`
	Category  string `schema:"category"`
	LimitFrom int    `schema:"limit_from"`
	LimitTo   int    `schema:"limit_to"`
}

var GetSoundsRules = govalidator.MapData{
	"user_ids":   []string{"array_int"},
	"limit_from": []string{"numeric"},
	"limit_to":   []string{"numeric"},
}

type Sound struct {
	ID        int       `json:"id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Category  string    `json:"category,omitempty"`
	User      *User     `json:"user,omitempty"`
	Price     float64   `json:"price"`
	FileURL   string    `json:"file_url,omitempty"`
	CoverURL  string    `json:"cover_url,omitempty"`
	Downloads int       `json:"downloads"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

type SoundsStruct struct {
	Sounds []Sound `json:"sounds"`
	Total  int     `json:"total"`
}
