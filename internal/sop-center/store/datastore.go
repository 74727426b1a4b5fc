package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/kart-io/clinsop/internal/model"
)

// datastore is the GORM-backed Factory implementation.
type datastore struct {
	db *gorm.DB
}

var _ Factory = (*datastore)(nil)

// NewStore creates a Factory backed by the given database handle.
func NewStore(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// AutoMigrate creates or updates the SOP center tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.SOPDocument{},
		&model.VectorEmbedding{},
	)
}

func (ds *datastore) Users() UserStore {
	return newUsers(ds.db)
}

func (ds *datastore) SOPs() SOPStore {
	return newSOPs(ds.db)
}

func (ds *datastore) Embeddings() EmbeddingStore {
	return newEmbeddings(ds.db)
}

func (ds *datastore) Tx(ctx context.Context, fn func(Factory) error) error {
	return ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&datastore{db: tx})
	})
}

func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
