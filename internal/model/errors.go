package model

import "errors"

var (
	ErrIDRequired      = errors.New("id is required")
	ErrNameRequired    = errors.New("name is required")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidMeal     = errors.New("invalid meal")
)
