package db

import (
	"context"
	"fmt"
	"io"
	"log"

	"github.com/harborline/storefront-sync/pkg/config"
	"github.com/harborline/storefront-sync/pkg/db/models"
	"github.com/harborline/storefront-sync/pkg/logger"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the embedded sqlite cache connection.
type Client struct {
	conn *gorm.DB
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens the embedded cache and migrates the inbox schema.
func New(ctx context.Context, cfg config.CacheConfig, logg *logger.Logger) (*Client, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("cache path is required")
	}

	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)

	conn, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	if err := conn.WithContext(ctx).AutoMigrate(&models.Notification{}); err != nil {
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "notification cache opened")
	}

	return &Client{conn: conn}, nil
}

// DB exposes the underlying gorm handle.
func (c *Client) DB() *gorm.DB {
	if c == nil {
		return nil
	}
	return c.conn
}

// Ping verifies the connection is usable.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("cache not initialized")
	}
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
