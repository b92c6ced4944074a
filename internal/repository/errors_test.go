package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicate(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'lampe' for key 'slug'"}

	tests := map[string]struct {
		err  error
		want bool
	}{
		"duplicate entry":       {dup, true},
		"wrapped duplicate":     {fmt.Errorf("insert product: %w", dup), true},
		"other server error":    {&mysql.MySQLError{Number: 1452, Message: "foreign key"}, false},
		"plain error with 1062": {errors.New("row 1062 could not be read"), false},
		"no error at all":       {nil, false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicate(tt.err))
		})
	}
}
