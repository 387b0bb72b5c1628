package repository

import (
	"context"
	"regexp"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedEntryColumnsPrefixesEveryColumn(t *testing.T) {
	qualified := qualifiedEntryColumns("e")
	for _, column := range entryColumnList {
		assert.Contains(t, qualified, "e."+column)
	}
	// No column may ride unprefixed into the six-way join.
	for _, part := range strings.Split(qualified, ", ") {
		assert.True(t, strings.HasPrefix(part, "e."), "column %q lacks alias", part)
	}
}

func TestDatesheetRepositoryListEntryDetailsQualifiesJoinColumns(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDatesheetRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("e.room_id, e.supervisor_id, e.invigilator_id")).
		WithArgs("sheet-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	details, err := repo.ListEntryDetails(context.Background(), "sheet-1")
	require.NoError(t, err)
	assert.Empty(t, details)
	require.NoError(t, mock.ExpectationsWereMet())
}
