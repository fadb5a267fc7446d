package auth

import (
	"fmt"

	"github.com/stagetalk/backend/config"
	"github.com/stagetalk/backend/pkg/utils"
)

// Moderator verifies moderator credentials. A credential is either the shared
// moderator password or a session token previously issued after a password
// login. The registry and ledger only ever see the resulting boolean.
type Moderator struct {
	passwordHash string
	jwt          *JWTService
}

// NewModerator creates the credential checker. When no bcrypt hash is
// configured the plain password from the environment is hashed at boot.
func NewModerator(cfg config.ModeratorConfig, jwtService *JWTService) (*Moderator, error) {
	hash := cfg.PasswordHash
	if hash == "" {
		if cfg.Password == "" {
			return nil, fmt.Errorf("no moderator password configured")
		}
		var err error
		hash, err = utils.HashPassword(cfg.Password)
		if err != nil {
			return nil, fmt.Errorf("hash moderator password: %w", err)
		}
	}
	return &Moderator{passwordHash: hash, jwt: jwtService}, nil
}

// VerifyPassword checks the shared moderator password.
func (m *Moderator) VerifyPassword(password string) bool {
	return password != "" && utils.CheckPassword(password, m.passwordHash)
}

// VerifyCredential accepts either the password or a valid session token.
func (m *Moderator) VerifyCredential(credential string) bool {
	if m.VerifyPassword(credential) {
		return true
	}
	claims, err := m.jwt.Validate(credential)
	return err == nil && claims.Role == RoleModerator
}

// IssueToken mints a session token after a successful password login.
func (m *Moderator) IssueToken() (string, error) {
	return m.jwt.Generate()
}
