package models

import (
	"time"

	"github.com/thedevsaddam/govalidator"
)

type InsertUserOpts struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
	Phone     string `json:"phone"`
	Roles     []int  `json:"roles"`
}

var InsertUserRules = govalidator.MapData{
	"email":     []string{"required", "email"},
	"password":  []string{"required"},
	"firstname": []string{"required"},
	"lastname":  []string{"required"},
	"phone":     []string{"required"},
	"roles":     []string{"required", "array_int"},
}

type GetUsersOpts struct {
	CreatedFrom string   `schema:"created_from"`
	CreatedTo   string   `schema:"created_to"`
	UserIDs     []int    `schema:"user_ids"`
	RoleIDs     []int    `schema:"role_ids"`
	Emails      []string `schema:"emails"`
	LimitFrom   int      `schema:"limit_from"`
	LimitTo     int      `schema:"limit_to"`
}

var GetUsersRules = govalidator.MapData{
	"created_from": []string{"date_ISO8601"},
	"created_to":   []string{"date_ISO8601"},
	"user_ids":     []string{"array_int"},
	"role_ids":     []string{"array_int"},
	"emails":       []string{"array_string"},
	"limit_from":   []string{"numeric"},
	"limit_to":     []string{"numeric"},
}

type User struct {
	ID        int       `json:"id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Password  string    `json:"-"`
	Firstname string    `json:"firstname,omitempty"`
	Lastname  string    `json:"lastname,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Roles     []Role    `json:"roles,omitempty"`
	Token     string    `json:"token,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
}

type Role struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (u *User) HasRole(roleID int) bool {
	for _, role := range u.Roles {
		if role.ID == roleID {
			return true
		}
	}
	return false
}

type UsersStruct struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

type InfoUser struct {
	ID       int
	Email    string
	Roles    []int
	IsAdmin  bool
	IsArtist bool
	IsClient bool
}
