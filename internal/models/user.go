// Package models defines the persisted data model: users, system
// configuration, the store root, and the admin credential.
package models

// User is a single account record. Salt and PasswordHash are raw bytes in
// memory; encoding/json renders them as base64 in the stored form.
// FaceTemplate is an opaque payload understood only by the external face
// comparison service. Invariant: FaceEnabled implies a non-empty
// FaceTemplate.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Salt         []byte `json:"salt"`
	PasswordHash []byte `json:"password_hash"`
	FaceEnabled  bool   `json:"face_enabled"`
	FaceTemplate []byte `json:"face_image_data,omitempty"`
}

// Clone returns a deep copy of the user so callers can never mutate the
// store's authoritative record through a returned value.
func (u *User) Clone() *User {
	c := *u
	c.Salt = append([]byte(nil), u.Salt...)
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	if u.FaceTemplate != nil {
		c.FaceTemplate = append([]byte(nil), u.FaceTemplate...)
	}
	return &c
}

// HasFace reports whether the biometric factor is usable for this user.
func (u *User) HasFace() bool {
	return u.FaceEnabled && len(u.FaceTemplate) > 0
}
