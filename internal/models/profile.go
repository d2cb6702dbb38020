package models

import "time"

// Profile defaults.
const (
	RoleStudent         = "student"
	DefaultFullName     = "Student"
	DefaultExamCategory = "Not specified"
	PlatformName        = "ExamShaala"
)

// Profile field names used for merge writes.
const (
	FieldFullName     = "fullName"
	FieldEmail        = "email"
	FieldExamCategory = "examCategory"
	FieldRole         = "role"
	FieldCreatedAt    = "createdAt"
	FieldLastLogin    = "lastLogin"
	FieldAuthProvider = "authProvider"
	FieldVerified     = "verified"
	FieldPlatform     = "platform"
)

// UserProfile is the application-owned record for an identity, keyed by UID.
// CreatedAt and LastLogin are assigned by the store.
type UserProfile struct {
	ID           string    `json:"uid" badgerhold:"key"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	ExamCategory string    `json:"examCategory"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	LastLogin    time.Time `json:"lastLogin"`
	AuthProvider string    `json:"authProvider"`
	Verified     bool      `json:"verified"`
	Platform     string    `json:"platform"`
}

// ApplyFields copies the named fields from src into p. Timestamp fields are
// skipped; stores assign those themselves. Unknown names are ignored.
func (p *UserProfile) ApplyFields(src *UserProfile, fields ...string) {
	for _, f := range fields {
		switch f {
		case FieldFullName:
			p.FullName = src.FullName
		case FieldEmail:
			p.Email = src.Email
		case FieldExamCategory:
			p.ExamCategory = src.ExamCategory
		case FieldRole:
			p.Role = src.Role
		case FieldAuthProvider:
			p.AuthProvider = src.AuthProvider
		case FieldVerified:
			p.Verified = src.Verified
		case FieldPlatform:
			p.Platform = src.Platform
		}
	}
}

// AbsorbCreate folds a second create of the same profile into p. Fields p
// already holds keep their value; fields that are empty, or still at their
// creation default, take src's value. Timestamps and Verified are untouched.
func (p *UserProfile) AbsorbCreate(src *UserProfile) {
	if p.FullName == "" || p.FullName == DefaultFullName {
		p.FullName = firstNonEmpty(src.FullName, p.FullName)
	}
	if p.ExamCategory == "" || p.ExamCategory == DefaultExamCategory {
		p.ExamCategory = firstNonEmpty(src.ExamCategory, p.ExamCategory)
	}
	p.Email = firstNonEmpty(p.Email, src.Email)
	p.Role = firstNonEmpty(p.Role, src.Role)
	p.AuthProvider = firstNonEmpty(p.AuthProvider, src.AuthProvider)
	p.Platform = firstNonEmpty(p.Platform, src.Platform)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

// NextTimestamp returns now, or prev plus one microsecond if the clock has
// not advanced past prev. Stored lastLogin values are strictly increasing.
func NextTimestamp(prev, now time.Time) time.Time {
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
