// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import "time"

// Identity is the authenticated principal of a request.
type Identity struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	EmailVerified bool       `json:"emailVerified"`
	Roles         []Role     `json:"roles"`
	DeletedAt     *time.Time `json:"-"`
}

// IsDeleted reports whether the account behind the identity was soft-deleted.
func (i *Identity) IsDeleted() bool {
	return i.DeletedAt != nil
}

// Has reports whether the identity holds a role equal to target.
func (i *Identity) Has(target Role) bool {
	return HasRole(i.Roles, target)
}
