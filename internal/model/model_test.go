package model

import (
	"fmt"
	"testing"

	"github.com/guregu/null/v6"
	"github.com/stretchr/testify/assert"
)

func TestErrorMatchesTemplateByCode(t *testing.T) {
	err := fmt.Errorf("complete upload: %w", ErrUploadIntegrity.Fmt(2))

	assert.ErrorIs(t, err, ErrUploadIntegrity)
	assert.NotErrorIs(t, err, ErrUploadNotFound)
	assert.Equal(t, "complete upload: Part 2 tag does not match the stored part", err.Error())
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	first := Paginate(items, PaginationParams{Limit: 2})
	assert.Equal(t, []int{1, 2}, first.Data)
	assert.Equal(t, null.IntFrom(5), first.Total)
	assert.Equal(t, null.Int32From(2), first.NextPage())

	last := Paginate(items, PaginationParams{Page: null.Int32From(3), Limit: 2})
	assert.Equal(t, []int{5}, last.Data)
	assert.False(t, last.NextPage().Valid)

	beyond := Paginate(items, PaginationParams{Page: null.Int32From(9), Limit: 2})
	assert.Empty(t, beyond.Data)
	assert.NotNil(t, beyond.Data)
}
