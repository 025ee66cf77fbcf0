package service

import "errors"

// Ошибки записи. Контроллер превращает их в сообщения пользователю.
var (
	ErrTooEarly               = errors.New("enrollment is not open yet")
	ErrClosed                 = errors.New("enrollment is closed")
	ErrFull                   = errors.New("no free seats left")
	ErrAlreadyEnrolled        = errors.New("user is already enrolled")
	ErrNotEnrolled            = errors.New("user is not enrolled")
	ErrCancelWindowClosed     = errors.New("cancellation window is closed")
	ErrNotYourGroup           = errors.New("event belongs to another group")
	ErrDuplicateActiveBooking = errors.New("duplicate active booking")
	ErrEntityNotFound         = errors.New("event not found")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrGroupNotFound          = errors.New("group not found")
	ErrInviteNotFound         = errors.New("invite not found")
)
