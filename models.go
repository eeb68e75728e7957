package auth

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the sole persisted entity. The id is assigned at creation and
// never changes; it is the only field embedded in issued credentials.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            uuid.UUID  `bun:"id,pk,type:uuid" json:"id,omitempty"`
	Email         string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash  string     `bun:"password_hash,notnull" json:"-"`
	IsActive      bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	IsSuperuser   bool       `bun:"is_superuser,notnull,default:false" json:"is_superuser"`
	IsVerified    bool       `bun:"is_verified,notnull,default:false" json:"is_verified"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// NormalizeEmail lowercases and trims an email so the unique index treats
// addresses case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Identity implementation, so a loaded User can be handed straight to the
// token service.

func (u *User) Identity() Identity {
	return userIdentity{
		id:        u.ID.String(),
		email:     u.Email,
		superuser: u.IsSuperuser,
	}
}

type userIdentity struct {
	id        string
	email     string
	superuser bool
}

func (i userIdentity) ID() string        { return i.id }
func (i userIdentity) Email() string     { return i.email }
func (i userIdentity) IsSuperuser() bool { return i.superuser }

var _ Identity = userIdentity{}
