package services

import "errors"

// 服务层哨兵错误
// controller 通过 errors.Is 映射为HTTP状态码，不向客户端透出驱动错误
var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrBookNotFound       = errors.New("book not found")
	ErrChatNotFound       = errors.New("chat not found")
	ErrNoBooks            = errors.New("no books found")
	ErrForbidden          = errors.New("permission denied")
	ErrInvalidPrice       = errors.New("price must be a finite non-negative number")
	ErrTooManyRequests    = errors.New("too many requests, please try again later")
	ErrSelfChat           = errors.New("cannot start a chat about your own book")
)
