package domain

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrInvalidPrediction   = errors.New("invalid prediction")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMarketNotStarted    = errors.New("market not started")
	ErrMarketEnded         = errors.New("market ended")
	ErrMarketNotEnded      = errors.New("market not ended")
	ErrMarketClosed        = errors.New("market not resolved")
	ErrAlreadyResolved     = errors.New("market already resolved")
	ErrAlreadyClaimed      = errors.New("winnings already claimed")
)
