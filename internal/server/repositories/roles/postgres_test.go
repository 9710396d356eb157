package roles

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const qByName = `(?s)^SELECT\s+id,\s*name\s+FROM\s+roles\s+WHERE\s+name\s*=\s*\$1\s*$`

func TestGetByName(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()
	repo := NewPostgresRepository(db)

	tests := []struct {
		name    string
		setup   func()
		want    *models.Role
		wantErr error
	}{
		{
			name: "found",
			setup: func() {
				mock.ExpectQuery(qByName).WithArgs(common.DefaultRoleName).
					WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(int64(1), common.DefaultRoleName))
			},
			want: &models.Role{ID: 1, Name: common.DefaultRoleName},
		},
		{
			name: "missing",
			setup: func() {
				mock.ExpectQuery(qByName).WithArgs(common.DefaultRoleName).WillReturnError(sql.ErrNoRows)
			},
			wantErr: common.ErrorNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			got, err := repo.GetByName(context.Background(), common.DefaultRoleName)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_DBError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(qByName).WithArgs("X").WillReturnError(errors.New("conn reset"))

	_, err = NewPostgresRepository(db).GetByName(context.Background(), "X")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, err.Error(), "conn reset")
}
