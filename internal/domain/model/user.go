package model

import "time"

// User is the partial view this core consumes. Profile data, auth and the rest
// of the account live in the main platform service.
type User struct {
	ID                 string
	PackageID          *int64
	PackageActiveUntil *time.Time
}

// EntitlementBaseline returns the point from which a new subscription year is
// counted: the current expiry when it is still in the future, otherwise now.
// Unexpired time is never lost; extensions stack rather than reset.
func (u *User) EntitlementBaseline(now time.Time) time.Time {
	if u.PackageActiveUntil != nil && u.PackageActiveUntil.After(now) {
		return *u.PackageActiveUntil
	}
	return now
}
