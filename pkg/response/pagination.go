package response

import (
	"github.com/guregu/null/v6"

	"github.com/beanbocchi/tubeup/internal/model"
)

type PaginationResponse[T any] struct {
	Data     []T      `json:"data"`
	PageMeta PageMeta `json:"pagination"`
}

type PageMeta struct {
	Limit    int32      `json:"limit"`
	Total    null.Int64 `json:"total"`
	Page     null.Int32 `json:"page"`
	NextPage null.Int32 `json:"next_page"`
}

func FromPaginateResult[T any](result model.PaginateResult[T]) PaginationResponse[T] {
	return PaginationResponse[T]{
		Data: result.Data,
		PageMeta: PageMeta{
			Limit:    result.PageParams.GetLimit(),
			Total:    result.Total,
			Page:     null.Int32From(result.PageParams.GetPage()),
			NextPage: result.NextPage(),
		},
	}
}
