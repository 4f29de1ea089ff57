package model

import (
	"github.com/guregu/null/v6"
)

const (
	defaultLimit int32 = 10
	maxLimit     int32 = 100
)

// PaginationParams represents the pagination parameters
type PaginationParams struct {
	Page  null.Int32 `query:"page" validate:"omitnil,gt=0"`
	Limit int32      `query:"limit" validate:"omitempty,gt=0,lte=100"`
}

func (p *PaginationParams) Offset() int32 {
	return (p.GetPage() - 1) * p.GetLimit()
}

func (p *PaginationParams) GetPage() int32 {
	if !p.Page.Valid || p.Page.Int32 <= 0 {
		p.Page.SetValid(1)
	}
	return p.Page.Int32
}

func (p *PaginationParams) GetLimit() int32 {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	return min(p.Limit, maxLimit)
}

// PaginateResult represents a paginated result set
type PaginateResult[T any] struct {
	PageParams PaginationParams
	Data       []T
	Total      null.Int64
}

func (p PaginateResult[T]) NextPage() null.Int32 {
	if p.Total.Valid {
		if int64(p.PageParams.GetPage())*int64(p.PageParams.GetLimit()) < p.Total.Int64 {
			return null.Int32From(p.PageParams.GetPage() + 1)
		}
	}
	return null.Int32{}
}

// Paginate slices one page out of items.
func Paginate[T any](items []T, params PaginationParams) PaginateResult[T] {
	offset := int(params.Offset())
	end := min(offset+int(params.GetLimit()), len(items))

	page := []T{}
	if offset < len(items) {
		page = items[offset:end]
	}
	return PaginateResult[T]{
		PageParams: params,
		Data:       page,
		Total:      null.IntFrom(int64(len(items))),
	}
}
