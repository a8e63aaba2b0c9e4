// README: Schema bootstrap; creates tables on startup if they do not exist.
package infra

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables the stores expect. Statements are
// idempotent so repeated startups are safe; column changes still need a
// manual migration.
func EnsureSchema(ctx context.Context, db *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS services (
            id                   TEXT PRIMARY KEY,
            name                 TEXT NOT NULL,
            base_price           BIGINT NOT NULL,
            duration_minutes     INTEGER NOT NULL DEFAULT 60,
            allow_bidding        BOOLEAN NOT NULL DEFAULT FALSE,
            min_suggested_price  BIGINT NOT NULL DEFAULT 0,
            max_suggested_price  BIGINT NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS providers (
            id                      TEXT PRIMARY KEY,
            intervention_radius_km  DOUBLE PRECISION NOT NULL DEFAULT 0,
            price_per_extra_km      BIGINT NOT NULL DEFAULT 0,
            lat                     DOUBLE PRECISION NOT NULL DEFAULT 0,
            lng                     DOUBLE PRECISION NOT NULL DEFAULT 0,
            city                    TEXT NOT NULL DEFAULT '',
            is_available            BOOLEAN NOT NULL DEFAULT FALSE,
            cancellation_count      INTEGER NOT NULL DEFAULT 0
        )`,
		`CREATE TABLE IF NOT EXISTS city_settings (
            city                  TEXT PRIMARY KEY,
            default_radius_km     DOUBLE PRECISION NOT NULL,
            default_price_per_km  BIGINT NOT NULL,
            max_radius_km         DOUBLE PRECISION NOT NULL,
            is_active             BOOLEAN NOT NULL DEFAULT TRUE
        )`,
		`CREATE TABLE IF NOT EXISTS orders (
            id                      TEXT PRIMARY KEY,
            service_id              TEXT NOT NULL,
            client_id               TEXT NOT NULL,
            provider_id             TEXT,
            city                    TEXT NOT NULL DEFAULT '',
            client_lat              DOUBLE PRECISION NOT NULL DEFAULT 0,
            client_lng              DOUBLE PRECISION NOT NULL DEFAULT 0,
            scheduled_at            TIMESTAMPTZ NOT NULL,
            duration_minutes        INTEGER NOT NULL DEFAULT 60,
            pricing_mode            TEXT NOT NULL,
            formula                 TEXT NOT NULL,
            status                  TEXT NOT NULL,
            status_version          INTEGER NOT NULL DEFAULT 0,
            base_price              BIGINT NOT NULL DEFAULT 0,
            formula_fee             BIGINT NOT NULL DEFAULT 0,
            night_fee               BIGINT NOT NULL DEFAULT 0,
            nights_count            INTEGER NOT NULL DEFAULT 0,
            distance_fee            BIGINT NOT NULL DEFAULT 0,
            extra_distance_km       DOUBLE PRECISION NOT NULL DEFAULT 0,
            distance_known          BOOLEAN NOT NULL DEFAULT FALSE,
            radius_km               DOUBLE PRECISION NOT NULL DEFAULT 0,
            price_per_extra_km      BIGINT NOT NULL DEFAULT 0,
            total                   BIGINT NOT NULL DEFAULT 0,
            currency                TEXT NOT NULL DEFAULT 'EUR',
            tip                     BIGINT NOT NULL DEFAULT 0,
            commission_amount       BIGINT NOT NULL DEFAULT 0,
            provider_amount         BIGINT NOT NULL DEFAULT 0,
            payment_method          TEXT NOT NULL DEFAULT '',
            payment_status          TEXT NOT NULL DEFAULT 'pending',
            user_proposed_price     BIGINT,
            bid_expiry_time         TIMESTAMPTZ,
            provider_cancelled      BOOLEAN NOT NULL DEFAULT FALSE,
            provider_cancel_reason  TEXT,
            provider_cancel_fee     BIGINT NOT NULL DEFAULT 0,
            provider_cancelled_at   TIMESTAMPTZ,
            previous_provider_id    TEXT,
            client_cancel_fee       BIGINT NOT NULL DEFAULT 0,
            created_at              TIMESTAMPTZ NOT NULL,
            accepted_at             TIMESTAMPTZ,
            on_way_at               TIMESTAMPTZ,
            started_at              TIMESTAMPTZ,
            completed_at            TIMESTAMPTZ,
            finalized_at            TIMESTAMPTZ,
            cancelled_at            TIMESTAMPTZ,
            cancel_reason           TEXT
        )`,
		`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_client ON orders (client_id)`,
		`CREATE TABLE IF NOT EXISTS bids (
            id                         TEXT PRIMARY KEY,
            order_id                   TEXT NOT NULL REFERENCES orders (id),
            provider_id                TEXT NOT NULL,
            proposed_price             BIGINT NOT NULL,
            currency                   TEXT NOT NULL DEFAULT 'EUR',
            estimated_arrival_minutes  INTEGER NOT NULL DEFAULT 0,
            message                    TEXT NOT NULL DEFAULT '',
            status                     TEXT NOT NULL DEFAULT 'pending',
            created_at                 TIMESTAMPTZ NOT NULL,
            resolved_at                TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_bids_order ON bids (order_id)`,
		`CREATE TABLE IF NOT EXISTS order_state_events (
            id           BIGSERIAL PRIMARY KEY,
            order_id     TEXT NOT NULL,
            from_status  TEXT NOT NULL,
            to_status    TEXT NOT NULL,
            actor_type   TEXT NOT NULL,
            actor_id     TEXT,
            created_at   TIMESTAMPTZ NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_order_state_events_order ON order_state_events (order_id)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
