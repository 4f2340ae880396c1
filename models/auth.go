package models

import "github.com/thedevsaddam/govalidator"

type LoginOpts struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var LoginRules = govalidator.MapData{
	"email":    []string{"required", "email"},
	"password": []string{"required"},
}

type UpdateUserPasswordOpts struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token"`
}

var UpdateUserPasswordRules = govalidator.MapData{
	"email":    []string{"required", "email"},
	"password": []string{"required"},
	"token":    []string{"required"},
}

type SendRememberTokenOpts struct {
	Email string `json:"email"`
}

var SendRememberTokenRules = govalidator.MapData{
	"email": []string{"required", "email"},
}
