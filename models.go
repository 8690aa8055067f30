package auth

import (
	"strings"

	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the credential store record. The password is never serialized.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            string `bun:"id,pk" json:"idUsuario"`
	FirstName     string `bun:"first_name,notnull" json:"nombre"`
	LastName      string `bun:"last_name,notnull" json:"apellido"`
	Email         string `bun:"email,notnull,unique" json:"email"`
	Password      string `bun:"password,notnull" json:"-"`
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.ID != "" {
		return
	}

	// ids are derived from the email so reseeding is stable
	if email := strings.ToLower(strings.TrimSpace(record.Email)); email != "" {
		if id, err := hashid.NewUUID(email); err == nil {
			record.ID = id.String()
			return
		}
	}

	record.ID = uuid.NewString()
}
