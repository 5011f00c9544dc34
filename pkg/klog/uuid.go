package klog

import "github.com/google/uuid"

// UUIDGenerator produces RFC 4122 v4 string identifiers. Nothing on disk
// uses these; the façade holds one as device identity.
type UUIDGenerator interface {
	Generate() string
}

type googleUUIDGenerator struct{}

func (googleUUIDGenerator) Generate() string {
	return uuid.NewString()
}
