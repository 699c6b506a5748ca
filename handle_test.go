package turbodbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatement_FinalizedRejectsOperations(t *testing.T) {
	s := &Statement{finalized: true}

	assert.Error(t, s.Prepare("SELECT 1"))
	assert.Error(t, s.ExecDirect("SELECT 1"))
	assert.Error(t, s.Execute())
	_, err := s.NumParams()
	assert.Error(t, err)
	_, err = s.NumResultColumns()
	assert.Error(t, err)
	_, err = s.FetchNext()
	assert.Error(t, err)
	_, err = s.RowCount()
	assert.Error(t, err)
	assert.Error(t, s.CloseCursor())
	assert.Error(t, s.PrepareWide("SELECT 1"))
	_, err = s.DescribeColumnWide(1)
	assert.Error(t, err)
	_, err = s.ColumnAttribute(1, SQL_DESC_LENGTH)
	assert.Error(t, err)
	assert.Error(t, s.UnbindAllParameters())
	assert.Error(t, s.UnbindAllColumns())

	terr, ok := err.(*Error)
	assert.True(t, ok)
	assert.Equal(t, KindInterfaceError, terr.Kind())
}

func TestStatement_FinalizeIsIdempotentWithoutNativeCalls(t *testing.T) {
	s := &Statement{finalized: true}
	assert.NotPanics(t, func() { s.Finalize() })
}
