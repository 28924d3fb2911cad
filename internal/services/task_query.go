package services

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/taskhub/backend/internal/models"
	"github.com/taskhub/backend/pkg/response"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TaskQuery holds the recognized filter, sort and paging options for listing
// the tasks of one project. Nil filters mean "no constraint".
type TaskQuery struct {
	Priority *string
	Done     *bool
	DueDate  *string
	SortBy   string
	Desc     bool
	PerPage  int
	Page     int
}

// TaskPage is the result of a task listing. When Paginated is false Items holds
// every matching task and the paging fields are zero.
type TaskPage struct {
	Items       []models.Task
	Paginated   bool
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
}

// sortable maps sort_by values to columns; priority is handled by rank.
var sortable = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
	"priority":   "priority",
	"due_date":   "due_date",
	"is_done":    "is_done",
	"done":       "is_done",
	"id":         "id",
}

var priorityRankSQL = buildPriorityRankSQL()

func buildPriorityRankSQL() string {
	var b strings.Builder
	b.WriteString("CASE priority")
	for _, p := range models.Priorities {
		b.WriteString(" WHEN '")
		b.WriteString(string(p))
		b.WriteString("' THEN ")
		b.WriteString(strconv.Itoa(p.Rank()))
	}
	b.WriteString(" ELSE 0 END")
	return b.String()
}

// ParseTaskQuery reads list options from query parameters. Malformed values
// never fail: unknown sorts fall back to the default order, a bad page size
// disables pagination and a bad page number selects page 1.
func ParseTaskQuery(values url.Values) TaskQuery {
	q := TaskQuery{Page: 1}

	if values.Has("priority") {
		v := values.Get("priority")
		q.Priority = &v
	}

	for _, key := range []string{"is_done", "done"} {
		if values.Has(key) {
			b := ParseLooseBool(values.Get(key))
			q.Done = &b
			break
		}
	}

	if values.Has("due_date") {
		v := values.Get("due_date")
		q.DueDate = &v
	}

	if sortBy := strings.TrimSpace(values.Get("sort_by")); sortBy != "" {
		if _, ok := sortable[sortBy]; ok {
			q.SortBy = sortBy
		}
	}
	q.Desc = strings.EqualFold(strings.TrimSpace(values.Get("direction")), "desc")

	if n, err := strconv.Atoi(values.Get("per_page")); err == nil && n > 0 {
		q.PerPage = n
	}
	if n, err := strconv.Atoi(values.Get("page")); err == nil && n > 0 {
		q.Page = n
	}

	return q
}

// ParseLooseBool treats "true", "1", "yes" and "on" (any case) as true and
// everything else as false.
func ParseLooseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes", "on":
		return true
	default:
		return false
	}
}

// Filter scopes db to the tasks of projectID matching every set filter.
func (q TaskQuery) Filter(db *gorm.DB, projectID uint) *gorm.DB {
	db = db.Model(&models.Task{}).Where("project_id = ?", projectID)

	if q.Priority != nil {
		db = db.Where("priority = ?", *q.Priority)
	}
	if q.Done != nil {
		db = db.Where("is_done = ?", *q.Done)
	}
	if q.DueDate != nil {
		day, err := models.ParseDate(*q.DueDate)
		if err != nil {
			// An unparsable date matches nothing.
			db = db.Where("1 = 0")
		} else {
			db = db.Where("due_date >= ? AND due_date < ?", day, day.Next())
		}
	}

	return db
}

// Order applies the requested sort, or newest-first when none was given.
// Explicit sorts break ties by id in the same direction.
func (q TaskQuery) Order(db *gorm.DB) *gorm.DB {
	column, ok := sortable[q.SortBy]
	if !ok {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true}).
			Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})
	}

	if column == "priority" {
		dir := " ASC"
		if q.Desc {
			dir = " DESC"
		}
		db = db.Order(priorityRankSQL + dir)
	} else {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: q.Desc})
	}

	if column != "id" {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: q.Desc})
	}
	return db
}

// Run executes the query against the tasks of projectID. The caller must have
// authorized access to the project. Store faults surface as StorageFailure.
func (q TaskQuery) Run(db *gorm.DB, projectID uint) (*TaskPage, error) {
	query := q.Filter(db, projectID)
	page := &TaskPage{Items: []models.Task{}}

	if q.PerPage <= 0 {
		if err := q.Order(query).Find(&page.Items).Error; err != nil {
			return nil, response.NewStorageFailure("Failed to list tasks", err)
		}
		return page, nil
	}

	current := q.Page
	if current <= 0 {
		current = 1
	}

	if err := query.Count(&page.Total).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to list tasks", err)
	}

	page.Paginated = true
	page.PerPage = q.PerPage
	page.CurrentPage = current
	page.LastPage = response.LastPage(page.Total, q.PerPage)

	// Pages past the end are empty; the offset is only computed when it fits.
	if current > page.LastPage {
		return page, nil
	}

	offset := (current - 1) * q.PerPage
	if err := q.Order(q.Filter(db, projectID)).Offset(offset).Limit(q.PerPage).Find(&page.Items).Error; err != nil {
		return nil, response.NewStorageFailure("Failed to list tasks", err)
	}
	return page, nil
}
