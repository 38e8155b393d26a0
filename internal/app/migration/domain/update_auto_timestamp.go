package domain

import "time"

// UpdateAutoTimestamp is a "last modified" marker that is owned by persistence:
// whatever value an entity is built with, saving it replaces the value with the
// time of the saving transaction.
type UpdateAutoTimestamp struct {
	value *time.Time
}

// NewUpdateAutoTimestamp returns a marker seeded with t, or an unset marker
// when t is nil.
func NewUpdateAutoTimestamp(t *time.Time) UpdateAutoTimestamp {
	if t == nil {
		return UpdateAutoTimestamp{}
	}
	v := t.UTC()
	return UpdateAutoTimestamp{value: &v}
}

// OnSave sets the marker to the transaction time, overwriting any previous value.
func (u *UpdateAutoTimestamp) OnSave(txTime time.Time) {
	v := txTime.UTC()
	u.value = &v
}

func (u UpdateAutoTimestamp) Timestamp() (time.Time, bool) {
	if u.value == nil {
		return time.Time{}, false
	}
	return *u.value, true
}

func (u UpdateAutoTimestamp) IsSet() bool {
	return u.value != nil
}

// Ptr returns the value for nullable columns.
func (u UpdateAutoTimestamp) Ptr() *time.Time {
	if u.value == nil {
		return nil
	}
	v := *u.value
	return &v
}
