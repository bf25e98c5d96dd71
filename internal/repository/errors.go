package repository

import "errors"

var (
	// ErrNotFound возвращается и когда записи нет, и когда она
	// принадлежит другому владельцу — снаружи это неразличимо.
	ErrNotFound  = errors.New("запись не найдена")
	ErrDuplicate = errors.New("запись уже существует")
)
