package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/models"
	"github.com/ahmetcoskunkizilkaya/mealmatch/internal/notify"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

// Both directions of a pair lock the same two membership rows in the same
// order before anything is read, so the second YES waits for the first.
func TestSubmitLikeLocksPairBeforeReading(t *testing.T) {
	community, a, b := uuid.New(), uuid.New(), uuid.New()
	u1, u2 := models.SortedPair(a, b)

	for _, dir := range [][2]uuid.UUID{{a, b}, {b, a}} {
		db, mock := mockDB(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "community_memberships" WHERE community_id = \$1 AND user_id = \$2 FOR UPDATE`).
			WithArgs(community, u1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectQuery(`SELECT \* FROM "community_memberships" WHERE community_id = \$1 AND user_id = \$2 FOR UPDATE`).
			WithArgs(community, u2).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectQuery(`SELECT count\(\*\) FROM "community_memberships"`).
			WillReturnError(errors.New("connection reset"))
		mock.ExpectRollback()

		_, err := NewService(db, notify.Nop{}).SubmitLike(context.Background(), dir[0], dir[1], community, models.AnswerYes)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	}
}
