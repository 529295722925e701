package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upbank/core-banking/internal/domain"
)

// ResolveSystemAccounts loads the well-known system-account ids once at
// startup. Nothing in the request path resolves accounts by display name.
func ResolveSystemAccounts(ctx context.Context, db *sql.DB) (domain.SystemAccounts, error) {
	rows, err := db.QueryContext(ctx, `SELECT role, account_id FROM system_accounts`)
	if err != nil {
		return domain.SystemAccounts{}, fmt.Errorf("ResolveSystemAccounts: %w", err)
	}
	defer rows.Close()

	byRole := make(map[domain.SystemRole]int64)
	for rows.Next() {
		var (
			role domain.SystemRole
			id   int64
		)
		if err := rows.Scan(&role, &id); err != nil {
			return domain.SystemAccounts{}, fmt.Errorf("ResolveSystemAccounts: scan: %w", err)
		}
		byRole[role] = id
	}
	if err := rows.Err(); err != nil {
		return domain.SystemAccounts{}, fmt.Errorf("ResolveSystemAccounts: rows: %w", err)
	}

	required := []domain.SystemRole{
		domain.RoleWelcomeGrant,
		domain.RoleOutboundSuspense,
		domain.RoleInboundSuspense,
		domain.RoleServicePayments,
		domain.RoleGovernmentPayments,
	}
	for _, role := range required {
		if _, ok := byRole[role]; !ok {
			return domain.SystemAccounts{}, fmt.Errorf("ResolveSystemAccounts: role %q not seeded", role)
		}
	}

	return domain.SystemAccounts{
		WelcomeGrant:       byRole[domain.RoleWelcomeGrant],
		OutboundSuspense:   byRole[domain.RoleOutboundSuspense],
		InboundSuspense:    byRole[domain.RoleInboundSuspense],
		ServicePayments:    byRole[domain.RoleServicePayments],
		GovernmentPayments: byRole[domain.RoleGovernmentPayments],
	}, nil
}
