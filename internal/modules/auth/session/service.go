package session

import (
	"errors"
	"time"

	"github.com/guardnest/core/internal/config"
	"github.com/guardnest/core/internal/middleware"
	"github.com/guardnest/core/internal/models"
	"github.com/guardnest/core/internal/pkg/opaque"
	"gorm.io/gorm"
)

const (
	// The identity provider inserts its own session row as a side effect of
	// credential verification, tagged with this user agent. Create purges
	// that artifact so login leaves exactly one row behind.
	providerArtifactUA     = "node"
	providerArtifactWindow = time.Minute
)

// Service is the session store accessor. It is the sole owner of the
// session table; every mutation runs inside a transaction.
type Service struct {
	db  *gorm.DB
	ttl config.AuthRuntimeConfig
}

func NewService(db *gorm.DB, authCfg config.AuthRuntimeConfig) *Service {
	return &Service{db: db, ttl: authCfg}
}

func (s *Service) issue(now time.Time) Issued {
	id := opaque.NewToken(opaque.DefaultByteLength)
	return Issued{
		SessionID:        id,
		RefreshToken:     opaque.NewToken(opaque.DefaultByteLength),
		ExpiresAt:        now.Add(s.ttl.SessionTTL()),
		RefreshExpiresAt: now.Add(s.ttl.RefreshTTL()),
	}
}

// Create inserts one session row for userID and returns the issued token
// pair. Provider-created artifacts from the last minute are purged in the
// same transaction.
func (s *Service) Create(userID, ip, userAgent string) (*Issued, error) {
	var out Issued
	err := s.db.Transaction(func(tx *gorm.DB) error {
		cutoff := time.Now().Add(-providerArtifactWindow)
		if err := tx.
			Where("`userId` = ? AND `userAgent` = ? AND `createdAt` > ?", userID, providerArtifactUA, cutoff).
			Delete(&models.SessionModel{}).Error; err != nil {
			return err
		}

		now := time.Now()
		out = s.issue(now)
		row := models.SessionModel{
			ID:               out.SessionID,
			Token:            out.SessionID,
			UserID:           userID,
			IPAddress:        ip,
			UserAgent:        userAgent,
			ExpiresAt:        out.ExpiresAt,
			RefreshToken:     out.RefreshToken,
			RefreshExpiresAt: out.RefreshExpiresAt,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Rotate consumes oldRefreshToken and replaces the row's tokens and expiries
// in place. The old refresh token is invalid the instant the transaction
// commits; of two concurrent rotations, the loser gets ErrNotFound.
func (s *Service) Rotate(oldRefreshToken string) (*Issued, error) {
	var out Issued
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row models.SessionModel
		if err := tx.Where("`refreshToken` = ?", oldRefreshToken).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		now := time.Now()
		if !row.RefreshExpiresAt.After(now) {
			return ErrRefreshExpired
		}

		out = s.issue(now)
		res := tx.Model(&models.SessionModel{}).
			Where("`refreshToken` = ?", oldRefreshToken).
			Updates(map[string]interface{}{
				"id":               out.SessionID,
				"token":            out.SessionID,
				"expiresAt":        out.ExpiresAt,
				"refreshToken":     out.RefreshToken,
				"refreshExpiresAt": out.RefreshExpiresAt,
				"updatedAt":        now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes the session matching either identifier. Deleting a session
// that does not exist is not an error.
func (s *Service) Delete(sessionID, refreshToken string) error {
	if sessionID == "" && refreshToken == "" {
		return nil
	}
	return s.db.
		Where("token = ? OR `refreshToken` = ?", sessionID, refreshToken).
		Delete(&models.SessionModel{}).Error
}

// Sweep deletes every row past either expiry and returns the count.
func (s *Service) Sweep(now time.Time) (int64, error) {
	res := s.db.
		Where("`expiresAt` <= ? OR `refreshExpiresAt` <= ?", now, now).
		Delete(&models.SessionModel{})
	return res.RowsAffected, res.Error
}

// Lookup materializes the identity behind sessionID. Expired sessions are
// treated as absent; deleting them is the sweep's job, not the read path's.
func (s *Service) Lookup(sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, nil
	}
	var row struct {
		UserID    string
		Email     string
		Name      string
		ExpiresAt time.Time
	}
	err := s.db.Table("session").
		Select("session.`userId` AS user_id, `user`.email AS email, `user`.name AS name, session.`expiresAt` AS expires_at").
		Joins("JOIN `user` ON `user`.id = session.`userId`").
		Where("session.token = ? AND session.`expiresAt` > ?", sessionID, time.Now()).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Identity{
		UserID:    row.UserID,
		Email:     row.Email,
		Name:      row.Name,
		ExpiresAt: row.ExpiresAt,
	}, nil
}

// EmailExists reports whether a provider account uses this email.
func (s *Service) EmailExists(email string) (bool, error) {
	var count int64
	err := s.db.Model(&models.UserModel{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// Resolve adapts Lookup to the auth middleware's principal contract.
func (s *Service) Resolve(sessionID string) (*middleware.Principal, error) {
	id, err := s.Lookup(sessionID)
	if err != nil || id == nil {
		return nil, err
	}
	return &middleware.Principal{
		UserID:    id.UserID,
		Email:     id.Email,
		Name:      id.Name,
		ExpiresAt: id.ExpiresAt,
	}, nil
}
