package auth

import "errors"

var (
	ErrInvalidToken          = errors.New("invalid or expired token")
	ErrCompanyIDRequired     = errors.New("token is not bound to a company")
	ErrManagerAccessRequired = errors.New("manager or owner role required")
)
