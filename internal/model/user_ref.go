package model

import "fmt"

// UserRef участник брони: зарегистрированный пользователь либо гость,
// которого администратор записал вручную. Ровно одно из полей заполнено.
type UserRef struct {
	ID        int64  // Telegram ID, 0 для гостя
	GuestName string // имя гостя, пустое для зарегистрированного
}

// RegisteredUser ссылка на зарегистрированного пользователя
func RegisteredUser(id int64) UserRef {
	return UserRef{ID: id}
}

// GuestUser ссылка на гостя без аккаунта
func GuestUser(name string) UserRef {
	return UserRef{GuestName: name}
}

// IsGuest true для гостевой записи
func (r UserRef) IsGuest() bool {
	return r.ID == 0
}

func (r UserRef) String() string {
	if r.IsGuest() {
		return fmt.Sprintf("guest:%s", r.GuestName)
	}
	return fmt.Sprintf("user:%d", r.ID)
}
