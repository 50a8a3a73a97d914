package dbtypes

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type arrayRow struct {
	ID  uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	IDs UUIDArray `gorm:"column:ids;not null"`
}

func TestUUIDArraySqliteRoundTrip(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&arrayRow{}))

	first := uuid.New()
	second := uuid.New()
	filled := &arrayRow{ID: uuid.New(), IDs: UUIDArray{first, second}}
	empty := &arrayRow{ID: uuid.New()}
	require.NoError(t, db.Create(filled).Error)
	require.NoError(t, db.Create(empty).Error)

	var got arrayRow
	require.NoError(t, db.First(&got, "id = ?", filled.ID).Error)
	require.Len(t, got.IDs, 2)
	assert.True(t, got.IDs.Contains(first))
	assert.True(t, got.IDs.Contains(second))

	got = arrayRow{}
	require.NoError(t, db.First(&got, "id = ?", empty.ID).Error)
	assert.Empty(t, got.IDs)
}

func TestUUIDArrayValueFormatsPostgresLiteral(t *testing.T) {
	id := uuid.MustParse("3e7e1bcd-54b4-4f37-9a17-0d9d3c39cf10")
	value, err := UUIDArray{id}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{3e7e1bcd-54b4-4f37-9a17-0d9d3c39cf10}", value)

	value, err = UUIDArray{}.Value()
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}
