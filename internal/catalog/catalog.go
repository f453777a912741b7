// Package catalog wires the property and property-type stores to the
// configured persistence backend.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/evcraddock/luxury-estates/internal/cache"
	"github.com/evcraddock/luxury-estates/internal/collection"
	"github.com/evcraddock/luxury-estates/internal/config"
	"github.com/evcraddock/luxury-estates/internal/db"
	"github.com/evcraddock/luxury-estates/internal/geocode"
	"github.com/evcraddock/luxury-estates/internal/property"
	"github.com/evcraddock/luxury-estates/internal/proptype"
	"github.com/evcraddock/luxury-estates/internal/rest"
	"github.com/evcraddock/luxury-estates/internal/snapshot"
	"github.com/evcraddock/luxury-estates/internal/sqlstore"
)

// Catalog holds the services for both collections.
type Catalog struct {
	Properties *property.Service
	Types      *proptype.Service
	Backend    string

	closers []func() error
}

// Open builds the catalog for cfg.Backend. local is the SQLite database
// that also holds auth data; the sqlite and snapshot backends store the
// catalog there too.
func Open(ctx context.Context, cfg config.Config, local *sql.DB) (*Catalog, error) {
	c := &Catalog{Backend: cfg.Backend}

	rdb, err := c.redis(ctx, cfg)
	if err != nil {
		return nil, err
	}

	opts := []collection.Option{collection.WithInsertPolicy(cfg.Policy())}
	var props *property.Store
	var types *proptype.Store

	switch cfg.Backend {
	case config.BackendSQLite:
		props, types = sqlStores(local, sqlstore.SQLite, opts)

	case config.BackendPostgres:
		remote, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, c.fail(err)
		}
		c.closers = append(c.closers, remote.Close)
		props, types = sqlStores(remote, sqlstore.Postgres, opts)

	case config.BackendMySQL:
		remote, err := db.OpenMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, c.fail(err)
		}
		c.closers = append(c.closers, remote.Close)
		props, types = sqlStores(remote, sqlstore.MySQL, opts)

	case config.BackendSnapshot:
		props, types = snapshotStores(snapshot.NewSQLiteKV(local), opts)

	case config.BackendSnapshotRedis:
		if rdb == nil {
			return nil, c.fail(errors.New("snapshot-redis backend needs a redis address"))
		}
		props, types = snapshotStores(snapshot.NewRedisKV(rdb), opts)

	case config.BackendREST:
		rc := rest.Config{BaseURL: cfg.RESTURL, APIKey: cfg.RESTKey, Timeout: cfg.RequestTimeout}
		props = collection.New[*property.Property](property.TableName, rest.New(rc, property.RemoteTable()), opts...)
		types = collection.New[*proptype.Item](proptype.TableName, rest.New(rc, proptype.RemoteTable()), opts...)

	default:
		return nil, c.fail(fmt.Errorf("unknown backend %q", cfg.Backend))
	}

	c.Properties = property.NewService(props, c.geocoder(cfg, rdb))
	c.Types = proptype.NewService(types)
	return c, nil
}

func sqlStores(d *sql.DB, dialect sqlstore.Dialect, opts []collection.Option) (*property.Store, *proptype.Store) {
	return collection.New[*property.Property](property.TableName, sqlstore.New(d, dialect, property.Table()), opts...),
		collection.New[*proptype.Item](proptype.TableName, sqlstore.New(d, dialect, proptype.Table()), opts...)
}

// snapshotStores uses sequential ids, which keep the serialized
// collections readable.
func snapshotStores(kv snapshot.KV, opts []collection.Option) (*property.Store, *proptype.Store) {
	opts = append(opts, collection.WithIDFunc(collection.Sequential))
	return collection.New[*property.Property](property.TableName, snapshot.New[*property.Property](kv, snapshot.PropertiesKey), opts...),
		collection.New[*proptype.Item](proptype.TableName, snapshot.New[*proptype.Item](kv, snapshot.PropertyTypesKey), opts...)
}

func (c *Catalog) redis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	c.closers = append(c.closers, rdb.Close)
	return rdb, nil
}

func (c *Catalog) geocoder(cfg config.Config, rdb *redis.Client) property.Locator {
	client := geocode.NewClient(cfg.GeocoderURL)
	if rdb == nil {
		return client
	}
	return geocode.NewCached(client, cache.NewRedis(rdb, "le:"))
}

// Seed fills empty collections with the default types and sample listings.
func (c *Catalog) Seed(ctx context.Context) error {
	n, err := c.Types.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seeding property types: %w", err)
	}
	if n > 0 {
		slog.Info("seeded property types", "count", n, "backend", c.Backend)
	}

	n, err = c.Properties.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seeding properties: %w", err)
	}
	if n > 0 {
		slog.Info("seeded properties", "count", n, "backend", c.Backend)
	}
	return nil
}

// Close releases connections opened by Open. The local database belongs
// to the caller.
func (c *Catalog) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Catalog) fail(err error) error {
	return errors.Join(err, c.Close())
}
