package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableIndexBindingValidate(t *testing.T) {
	valid := TableIndexBinding{
		IndexName:    "widgets",
		UpdateQuery:  "SELECT * FROM widgets WHERE rowid = ?",
		PrimaryKeyFn: func(row RowAccessor) (string, error) { return "", nil },
	}
	assert.NoError(t, valid.Validate())

	missingIndexName := valid
	missingIndexName.IndexName = ""
	assert.ErrorIs(t, missingIndexName.Validate(), ErrInvalidBinding)

	missingQuery := valid
	missingQuery.UpdateQuery = ""
	assert.ErrorIs(t, missingQuery.Validate(), ErrInvalidBinding)

	missingFn := valid
	missingFn.PrimaryKeyFn = nil
	assert.ErrorIs(t, missingFn.Validate(), ErrInvalidBinding)
}
