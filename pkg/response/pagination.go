package response

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// PageMeta describes the slice of a collection carried by a paginated response.
type PageMeta struct {
	Total       int64 `json:"total"`
	PerPage     int   `json:"per_page"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	From        *int  `json:"from"`
	To          *int  `json:"to"`
}

// PageLinks are absolute-path links to neighbouring pages; Prev/Next are null at the edges.
type PageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

// PaginatedResponse is the envelope for paginated collections.
type PaginatedResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
	Meta    PageMeta    `json:"meta"`
	Links   PageLinks   `json:"links"`
}

// LastPage returns the number of the last page, at least 1.
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// NewPageMeta computes pagination metadata for itemCount items on page.
func NewPageMeta(total int64, page, perPage, itemCount int) PageMeta {
	meta := PageMeta{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: page,
		LastPage:    LastPage(total, perPage),
	}
	if itemCount > 0 {
		from := (page-1)*perPage + 1
		to := from + itemCount - 1
		meta.From = &from
		meta.To = &to
	}
	return meta
}

// Paginated sends a 200 OK paginated collection. items must already be the requested page.
func Paginated(c *gin.Context, items interface{}, itemCount int, total int64, page, perPage int) {
	meta := NewPageMeta(total, page, perPage, itemCount)
	c.JSON(http.StatusOK, PaginatedResponse{
		Code:    0,
		Message: "ok",
		Data:    items,
		Meta:    meta,
		Links:   buildLinks(c.Request.URL, meta),
	})
}

func buildLinks(u *url.URL, meta PageMeta) PageLinks {
	pageURL := func(page int) string {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		return u.Path + "?" + q.Encode()
	}

	links := PageLinks{
		First: pageURL(1),
		Last:  pageURL(meta.LastPage),
	}
	if meta.CurrentPage > 1 {
		prev := pageURL(meta.CurrentPage - 1)
		links.Prev = &prev
	}
	if meta.CurrentPage < meta.LastPage {
		next := pageURL(meta.CurrentPage + 1)
		links.Next = &next
	}
	return links
}
