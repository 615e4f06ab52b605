package models

// DataModel is the root of the persisted record: a schema version, the
// user collection, and exactly one SystemConfig.
type DataModel struct {
	Version int          `json:"version"`
	Users   []*User      `json:"users"`
	Config  SystemConfig `json:"config"`
}

// NewDataModel returns an empty store root at the given schema version
// with the default policy.
func NewDataModel(version int) *DataModel {
	return &DataModel{
		Version: version,
		Users:   []*User{},
		Config:  DefaultSystemConfig(),
	}
}

// AdminCredential is the single administrator password record:
// structurally the same salt/hash pair a User carries, stored separately
// and without a username.
type AdminCredential struct {
	Salt []byte
	Hash []byte
}
