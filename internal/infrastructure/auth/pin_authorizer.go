// Package auth verifies manager and owner PINs against stored bcrypt
// hashes.
package auth

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/salonhq/billing/internal/application/port"
	"github.com/salonhq/billing/internal/domain/approval"
)

// PINAuthorizer implements port.Authorizer against the
// staff_credentials table.
type PINAuthorizer struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPINAuthorizer creates a new PIN authorizer
func NewPINAuthorizer(db *sql.DB, logger *zap.Logger) port.Authorizer {
	return &PINAuthorizer{
		db:     db,
		logger: logger,
	}
}

// roleRank orders credential roles so an owner PIN also clears the
// manager tier.
var roleRank = map[string]int{
	"manager": 2,
	"owner":   3,
}

func requiredRank(tier approval.Tier) int {
	if tier == approval.TierOwner {
		return roleRank["owner"]
	}
	return roleRank["manager"]
}

// Authorize checks the PIN against every active credential for the
// salon whose role clears the tier, and returns the matching staff ID.
// A wrong or unknown PIN yields ErrAuthorizationRequired; the caller
// cannot tell the two apart.
func (a *PINAuthorizer) Authorize(ctx context.Context, salonID, pin string, tier approval.Tier) (string, error) {
	query := `
		SELECT staff_id, role, pin_hash
		FROM staff_credentials
		WHERE salon_id = ? AND active = TRUE
	`

	rows, err := a.db.QueryContext(ctx, query, salonID)
	if err != nil {
		a.logger.Error("Failed to load staff credentials",
			zap.String("salon_id", salonID),
			zap.Error(err))
		return "", fmt.Errorf("failed to load staff credentials: %w", err)
	}
	defer rows.Close()

	need := requiredRank(tier)
	for rows.Next() {
		var staffID, role, pinHash string
		if err := rows.Scan(&staffID, &role, &pinHash); err != nil {
			return "", fmt.Errorf("failed to scan staff credential: %w", err)
		}
		if roleRank[role] < need {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(pinHash), []byte(pin)) == nil {
			return staffID, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("failed to read staff credentials: %w", err)
	}

	return "", approval.ErrAuthorizationRequired
}

// HashPIN produces the bcrypt hash stored in staff_credentials.
func HashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hash), nil
}

// Verify interface compliance
var _ port.Authorizer = (*PINAuthorizer)(nil)
