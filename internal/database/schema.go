package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema creates every table when absent.  Existing tables are never
// altered.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		username      VARCHAR(100)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		role          VARCHAR(20)     NOT NULL DEFAULT 'admin',
		created_at    DATETIME        NOT NULL,
		updated_at    DATETIME        NOT NULL,
		UNIQUE KEY uq_users_username (username)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS products (
		id                BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		slug              VARCHAR(255)    NOT NULL,
		title             VARCHAR(255)    NOT NULL,
		reference         VARCHAR(100)    NOT NULL,
		category          VARCHAR(100)    NOT NULL,
		short_description TEXT            NOT NULL,
		description       TEXT            NOT NULL,
		image             VARCHAR(500)    NOT NULL DEFAULT '',
		specifications    JSON            NOT NULL,
		benefits          JSON            NOT NULL,
		downloads         JSON            NOT NULL,
		compatibility     JSON            NOT NULL,
		related_products  JSON            NOT NULL,
		is_new            TINYINT(1)      NOT NULL DEFAULT 0,
		featured          TINYINT(1)      NOT NULL DEFAULT 0,
		meta_title        VARCHAR(255)    NOT NULL DEFAULT '',
		meta_description  VARCHAR(500)    NOT NULL DEFAULT '',
		created_at        DATETIME        NOT NULL,
		updated_at        DATETIME        NOT NULL,
		UNIQUE KEY uq_products_slug (slug),
		KEY idx_products_category (category)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS slides (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title      VARCHAR(255)    NOT NULL,
		subtitle   VARCHAR(500)    NOT NULL DEFAULT '',
		cta_text   VARCHAR(100)    NOT NULL DEFAULT '',
		cta_link   VARCHAR(500)    NOT NULL DEFAULT '',
		image      VARCHAR(500)    NOT NULL DEFAULT '',
		sort_order INT             NOT NULL DEFAULT 0,
		is_active  TINYINT(1)      NOT NULL DEFAULT 1,
		created_at DATETIME        NOT NULL,
		updated_at DATETIME        NOT NULL,
		KEY idx_slides_active_order (is_active, sort_order)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS blog_posts (
		id               BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		slug             VARCHAR(255)    NOT NULL,
		title            VARCHAR(255)    NOT NULL,
		content          MEDIUMTEXT      NOT NULL,
		excerpt          TEXT            NOT NULL,
		image            VARCHAR(500)    NOT NULL DEFAULT '',
		author           VARCHAR(100)    NOT NULL DEFAULT '',
		status           VARCHAR(20)     NOT NULL DEFAULT 'draft',
		meta_title       VARCHAR(255)    NOT NULL DEFAULT '',
		meta_description VARCHAR(500)    NOT NULL DEFAULT '',
		published_at     DATETIME        NULL,
		created_at       DATETIME        NOT NULL,
		updated_at       DATETIME        NOT NULL,
		UNIQUE KEY uq_blog_posts_slug (slug),
		KEY idx_blog_posts_status (status, published_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS features (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		title       VARCHAR(255)    NOT NULL,
		description TEXT            NOT NULL,
		icon        VARCHAR(100)    NOT NULL DEFAULT '',
		sort_order  INT             NOT NULL DEFAULT 0,
		is_active   TINYINT(1)      NOT NULL DEFAULT 1,
		created_at  DATETIME        NOT NULL,
		updated_at  DATETIME        NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS login_attempts (
		id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
		ip           VARCHAR(45)     NOT NULL,
		username     VARCHAR(100)    NOT NULL DEFAULT '',
		success      TINYINT(1)      NOT NULL DEFAULT 0,
		attempted_at DATETIME        NOT NULL,
		KEY idx_login_attempts_ip_time (ip, attempted_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// EnsureSchema runs every CREATE TABLE IF NOT EXISTS statement in order.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
