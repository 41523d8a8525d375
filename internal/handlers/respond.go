package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/emilythestrangee/qa-forum/backend/internal/apperr"
	"github.com/emilythestrangee/qa-forum/backend/internal/middleware"
	"github.com/emilythestrangee/qa-forum/backend/internal/models"
)

func init() {
	// Report JSON names in validation errors instead of Go field names.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	}
}

type okBody struct {
	Code string `json:"code"`
	Data any    `json:"data"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, okBody{Code: "ok", Data: data})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, okBody{Code: "ok", Data: data})
}

func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func fail(c *gin.Context, err error) {
	middleware.Abort(c, err)
}

// bindJSON decodes the body into dst and reports binding failures as
// field-level validation errors.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, bindingError(err))
		return false
	}
	return true
}

func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperr.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperr.Field(apperr.LocationBody, jsonPointer(fe), apperr.CodeInvalidParameter, describe(fe)))
		}
		return apperr.Validation(fields...)
	}
	return apperr.Validation(apperr.Field(apperr.LocationBody, "/", apperr.CodeInvalidParameter, "Malformed JSON body"))
}

// jsonPointer turns a validator namespace such as "CreateQuestionRequest.tags[1]"
// into "/tags/1".
func jsonPointer(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, found := strings.Cut(ns, "."); found {
		ns = rest
	}
	ns = strings.NewReplacer("[", ".", "]", "").Replace(ns)
	return "/" + strings.ReplaceAll(ns, ".", "/")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Is required"
	case "email":
		return "Must be a valid email"
	case "e164":
		return "Must be a phone number in E.164 format"
	case "min", "max", "gt":
		return "Must be " + fe.Tag() + " " + fe.Param()
	}
	return "Is invalid"
}

// pathID parses a positive integer path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperr.Validation(apperr.Field(apperr.LocationPath, "/"+name, apperr.CodeInvalidParameter, "Must be a positive integer")))
		return 0, false
	}
	return id, true
}

// queryID parses an optional positive integer query parameter; absent means 0.
func queryID(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fail(c, apperr.Validation(apperr.Field(apperr.LocationQuery, "/"+name, apperr.CodeInvalidParameter, "Must be a positive integer")))
		return 0, false
	}
	return id, true
}

// currentUserID returns the id the auth middleware stored for the caller.
func currentUserID(c *gin.Context) (int64, bool) {
	id, found := middleware.UserID(c)
	if !found {
		fail(c, apperr.Unauthorized(apperr.CodeNoToken, "User not authenticated"))
		return 0, false
	}
	return id, true
}

// Sortable columns per listing, by query name.
var (
	questionSorts = columns("id", "title", "vote_count", "answer_count", "created_at", "updated_at")
	answerSorts   = columns("id", "vote_count", "created_at", "updated_at")
	topicSorts    = columns("id", "name", "question_count", "created_at")
	userSorts     = columns("id", "first_name", "last_name", "email", "vote_count", "created_at")
	tagSorts      = columns("id", "name")
)

func columns(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// parsePage reads limit, offset and sort from the query string.
// sort is a comma separated list of columns, each optionally prefixed by "-"
// for descending order.
func parsePage(c *gin.Context, sortable map[string]bool) (models.Page, bool) {
	page := models.DefaultPage()
	var fields []apperr.FieldError

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < models.MinLimit || n > models.MaxLimit {
			fields = append(fields, apperr.Field(apperr.LocationQuery, "/limit", apperr.CodeInvalidParameter,
				"Must be between "+strconv.Itoa(models.MinLimit)+" and "+strconv.Itoa(models.MaxLimit)))
		} else {
			page.Limit = n
		}
	}
	if raw := c.Query("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > models.MaxOffset {
			fields = append(fields, apperr.Field(apperr.LocationQuery, "/offset", apperr.CodeInvalidParameter,
				"Must be between 0 and "+strconv.Itoa(models.MaxOffset)))
		} else {
			page.Offset = n
		}
	}
	if raw := c.Query("sort"); raw != "" {
		var rules []models.SortRule
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			desc := strings.HasPrefix(part, "-")
			col := strings.TrimPrefix(part, "-")
			if !sortable[col] {
				fields = append(fields, apperr.Field(apperr.LocationQuery, "/sort", apperr.CodeInvalidParameter,
					"Cannot sort by "+strconv.Quote(col)))
				continue
			}
			rules = append(rules, models.SortRule{Column: col, Desc: desc})
		}
		// id breaks ties so paging is stable
		if !slices.ContainsFunc(rules, func(r models.SortRule) bool { return r.Column == "id" }) {
			rules = append(rules, models.SortRule{Column: "id"})
		}
		page.Sort = rules
	}

	if len(fields) > 0 {
		fail(c, apperr.Validation(fields...))
		return page, false
	}
	return page, true
}
