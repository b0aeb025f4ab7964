// Package mirror is the client's durable copy of the menu and orders. It is
// refreshed from every successful live read and written optimistically before
// each mutation is sent. Last writer wins.
package mirror

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"cafe-pos-backend/internal/models"
)

const (
	KeyProducts   = "products_cache"
	KeyCategories = "categories_cache"
	KeyOrders     = "orders_cache"
)

type Mirror struct {
	db  *badger.DB
	log logrus.FieldLogger
}

// badgerLogger keeps badger's chatty info output at debug level.
type badgerLogger struct {
	log logrus.FieldLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{})   { l.log.Errorf(format, args...) }
func (l badgerLogger) Warningf(format string, args ...interface{}) { l.log.Warnf(format, args...) }
func (l badgerLogger) Infof(format string, args ...interface{})    { l.log.Debugf(format, args...) }
func (l badgerLogger) Debugf(format string, args ...interface{})   { l.log.Debugf(format, args...) }

// Open opens the mirror in dir, or in memory when dir is empty.
func Open(dir string, log logrus.FieldLogger) (*Mirror, error) {
	log = log.WithField("component", "mirror")

	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create mirror directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{log: log})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open mirror: %w", err)
	}
	return &Mirror{db: db, log: log}, nil
}

func (m *Mirror) Close() error {
	return m.db.Close()
}

// load decodes the list under key. A missing key reads as empty. A corrupt
// entry is dropped and also reads as empty.
func load[T any](m *Mirror, txn *badger.Txn, key string) ([]T, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []T
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &out)
	})
	if err == nil {
		return out, nil
	}

	var syntax *json.SyntaxError
	var typ *json.UnmarshalTypeError
	if !errors.As(err, &syntax) && !errors.As(err, &typ) {
		return nil, err
	}
	m.log.WithError(err).WithField("key", key).Error("Corrupt mirror entry, discarding")
	if err := txn.Delete([]byte(key)); err != nil {
		return nil, err
	}
	return nil, nil
}

func store(txn *badger.Txn, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), b)
}

func read[T any](m *Mirror, key string) []T {
	var out []T
	// Update rather than View so a corrupt entry can be deleted in place.
	err := m.db.Update(func(txn *badger.Txn) error {
		var err error
		out, err = load[T](m, txn, key)
		return err
	})
	if err != nil {
		m.log.WithError(err).WithField("key", key).Error("Failed to read mirror")
		return nil
	}
	return out
}

func write[T any](m *Mirror, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return store(txn, key, items)
	})
}

func modify[T any](m *Mirror, key string, fn func([]T) ([]T, error)) error {
	return m.db.Update(func(txn *badger.Txn) error {
		items, err := load[T](m, txn, key)
		if err != nil {
			return err
		}
		next, err := fn(items)
		if err != nil {
			return err
		}
		return store(txn, key, next)
	})
}

func (m *Mirror) Products() []models.Product { return read[models.Product](m, KeyProducts) }

func (m *Mirror) SetProducts(p []models.Product) error { return write(m, KeyProducts, p) }

func (m *Mirror) Categories() []models.Category { return read[models.Category](m, KeyCategories) }

func (m *Mirror) SetCategories(c []models.Category) error { return write(m, KeyCategories, c) }

func (m *Mirror) Orders() []models.Order { return read[models.Order](m, KeyOrders) }

func (m *Mirror) SetOrders(o []models.Order) error { return write(m, KeyOrders, o) }

// Order returns the mirrored order with the given id.
func (m *Mirror) Order(id string) (models.Order, bool) {
	for _, o := range m.Orders() {
		if o.ID == id {
			return o, true
		}
	}
	return models.Order{}, false
}

// PutOrder replaces the order with the same id, or puts o first.
func (m *Mirror) PutOrder(o models.Order) error {
	return modify(m, KeyOrders, func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID == o.ID {
				orders[i] = o
				return orders, nil
			}
		}
		return append([]models.Order{o}, orders...), nil
	})
}

// UpdateOrder applies fn to the mirrored order with the given id. It reports
// false when the order is not mirrored. An error from fn leaves the mirror
// unchanged.
func (m *Mirror) UpdateOrder(id string, fn func(*models.Order) error) (bool, error) {
	found := false
	err := modify(m, KeyOrders, func(orders []models.Order) ([]models.Order, error) {
		for i := range orders {
			if orders[i].ID == id {
				found = true
				if err := fn(&orders[i]); err != nil {
					return nil, err
				}
				break
			}
		}
		return orders, nil
	})
	return found, err
}

func (m *Mirror) PutProduct(p models.Product) error {
	return modify(m, KeyProducts, func(products []models.Product) ([]models.Product, error) {
		for i := range products {
			if products[i].ID == p.ID {
				products[i] = p
				return products, nil
			}
		}
		return append(products, p), nil
	})
}

func (m *Mirror) RemoveProduct(id string) error {
	return modify(m, KeyProducts, func(products []models.Product) ([]models.Product, error) {
		kept := products[:0]
		for _, p := range products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

func (m *Mirror) PutCategory(c models.Category) error {
	return modify(m, KeyCategories, func(cats []models.Category) ([]models.Category, error) {
		for i := range cats {
			if cats[i].ID == c.ID {
				cats[i] = c
				return cats, nil
			}
		}
		return append(cats, c), nil
	})
}

func (m *Mirror) RemoveCategory(id string) error {
	return modify(m, KeyCategories, func(cats []models.Category) ([]models.Category, error) {
		kept := cats[:0]
		for _, c := range cats {
			if c.ID != id {
				kept = append(kept, c)
			}
		}
		return kept, nil
	})
}
