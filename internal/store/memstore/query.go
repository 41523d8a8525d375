package memstore

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

func pick[T any](m map[int64]T, ids []int64) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := m[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

// compareValues orders the column values returned by the per-type accessors.
func compareValues(a, b any) int {
	switch x := a.(type) {
	case int64:
		return cmp.Compare(x, b.(int64))
	case string:
		return cmp.Compare(x, b.(string))
	case time.Time:
		return x.Compare(b.(time.Time))
	}
	return 0
}

// window sorts items by page.Sort, then cuts page out of them.
// Unknown columns are ignored and ties fall back to id.
func window[T any](items []T, page models.Page, column func(T, string) any) ([]T, int64, error) {
	total := int64(len(items))
	slices.SortStableFunc(items, func(a, b T) int {
		for _, r := range page.Sort {
			va, vb := column(a, r.Column), column(b, r.Column)
			if va == nil || vb == nil {
				continue
			}
			c := compareValues(va, vb)
			if r.Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return compareValues(column(a, "id"), column(b, "id"))
	})
	if page.Offset >= len(items) {
		return nil, total, nil
	}
	items = items[page.Offset:]
	if page.Limit > 0 && len(items) > page.Limit {
		items = items[:page.Limit]
	}
	return items, total, nil
}

// containsFold reports whether any of fields contains keyword, ignoring case.
func containsFold(keyword string, fields ...string) bool {
	k := strings.ToLower(keyword)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), k) {
			return true
		}
	}
	return false
}

func userColumn(u models.User, col string) any {
	switch col {
	case "id":
		return u.ID
	case "first_name":
		return u.FirstName
	case "last_name":
		return u.LastName
	case "email":
		return u.Email
	case "vote_count":
		return u.VoteCount
	case "created_at":
		return u.CreatedAt
	}
	return nil
}

func topicColumn(t models.Topic, col string) any {
	switch col {
	case "id":
		return t.ID
	case "name":
		return t.Name
	case "question_count":
		return t.QuestionCount
	case "created_at":
		return t.CreatedAt
	}
	return nil
}

func questionColumn(q models.Question, col string) any {
	switch col {
	case "id":
		return q.ID
	case "title":
		return q.Title
	case "vote_count":
		return q.VoteCount
	case "answer_count":
		return q.AnswerCount
	case "created_at":
		return q.CreatedAt
	case "updated_at":
		return q.UpdatedAt
	}
	return nil
}

func answerColumn(a models.Answer, col string) any {
	switch col {
	case "id":
		return a.ID
	case "vote_count":
		return a.VoteCount
	case "created_at":
		return a.CreatedAt
	case "updated_at":
		return a.UpdatedAt
	}
	return nil
}

func tagColumn(t models.QuestionTag, col string) any {
	switch col {
	case "id":
		return t.ID
	case "name":
		return t.Name
	}
	return nil
}
