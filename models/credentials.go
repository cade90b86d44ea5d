package models

type Credentials struct {
	UserName string `json:"user_name"`
	Password string `json:"password"`
}
