// Package search builds index queries from list-endpoint parameters and runs
// them against Elasticsearch.
package search

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/topcoder-platform/submissions-api-sub000/internal/apperr"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Parameters that control paging and ordering rather than filtering.
const (
	ParamPage    = "page"
	ParamPerPage = "perPage"
	ParamSortBy  = "sortBy"
	ParamOrderBy = "orderBy"
)

// FieldResource discriminates document types in the shared index.
const FieldResource = "resource"

// nestedPaths are the sub-documents embedded in submission documents, in the
// order their clauses are emitted.
var nestedPaths = []string{"review", "reviewSummation"}

// sortable lists the fields each resource may be sorted by.
var sortable = map[string][]string{
	"submission": {
		"id", "type", "url", "memberId", "challengeId", "legacyChallengeId",
		"legacySubmissionId", "legacyUploadId", "submissionPhaseId", "fileType",
		"submittedDate", "created", "updated", "createdBy", "updatedBy",
	},
	"review": {
		"id", "score", "typeId", "reviewerId", "scoreCardId", "submissionId",
		"status", "reviewedDate", "created", "updated", "createdBy", "updatedBy",
	},
	"reviewSummation": {
		"id", "aggregateScore", "scoreCardId", "submissionId", "isPassing",
		"isFinal", "reviewedDate", "created", "updated", "createdBy", "updatedBy",
	},
	"reviewType": {"id", "name", "isActive"},
}

// Request is a built search request.
type Request struct {
	Resource string
	Page     int
	PerPage  int
	From     int
	Query    map[string]any
	Sort     []map[string]any
}

// Body returns the Elasticsearch request body.
func (r *Request) Body() map[string]any {
	body := map[string]any{
		"query": r.Query,
		"from":  r.From,
		"size":  r.PerPage,
	}
	if len(r.Sort) > 0 {
		body["sort"] = r.Sort
	}
	return body
}

// Filters returns the top-level filter clauses.
func (r *Request) Filters() []map[string]any {
	boolQuery, _ := r.Query["bool"].(map[string]any)
	filters, _ := boolQuery["filter"].([]map[string]any)
	return filters
}

// Build translates list parameters for resource into a search request.
// Plain keys become top-level match_phrase filters. Dotted keys
// ("review.score") are grouped into one nested clause per sub-document.
func Build(resource string, params map[string]any) (*Request, error) {
	page, err := intParam(params, ParamPage, 1)
	if err != nil {
		return nil, err
	}
	perPage, err := intParam(params, ParamPerPage, DefaultPageSize)
	if err != nil {
		return nil, err
	}
	if perPage > MaxPageSize {
		return nil, apperr.Validation("perPage must be less than or equal to %d", MaxPageSize)
	}

	sort, err := buildSort(resource, params)
	if err != nil {
		return nil, err
	}

	filters := []map[string]any{
		matchPhrase(FieldResource, resource),
	}
	nested := make(map[string][]map[string]any)

	for _, key := range slices.Sorted(maps.Keys(params)) {
		switch key {
		case ParamPage, ParamPerPage, ParamSortBy, ParamOrderBy:
			continue
		}
		value := params[key]

		parent, _, dotted := strings.Cut(key, ".")
		if !dotted {
			filters = append(filters, matchPhrase(key, value))
			continue
		}
		if !slices.Contains(nestedPaths, parent) {
			return nil, apperr.Validation("Filtering on nested field %s is not supported", key)
		}
		nested[parent] = append(nested[parent], matchPhrase(key, value))
	}

	for _, path := range nestedPaths {
		clauses, ok := nested[path]
		if !ok {
			continue
		}
		filters = append(filters, map[string]any{
			"nested": map[string]any{
				"path": path,
				"query": map[string]any{
					"bool": map[string]any{"filter": clauses},
				},
			},
		})
	}

	return &Request{
		Resource: resource,
		Page:     page,
		PerPage:  perPage,
		From:     (page - 1) * perPage,
		Query: map[string]any{
			"bool": map[string]any{"filter": filters},
		},
		Sort: sort,
	}, nil
}

func buildSort(resource string, params map[string]any) ([]map[string]any, error) {
	sortBy, hasSortBy := stringParam(params, ParamSortBy)
	orderBy, hasOrderBy := stringParam(params, ParamOrderBy)

	if hasOrderBy && !hasSortBy {
		return nil, apperr.Validation("orderBy cannot be used without sortBy")
	}

	var sort []map[string]any
	if hasSortBy {
		if !slices.Contains(sortable[resource], sortBy) {
			return nil, apperr.Validation("sortBy %q is not allowed for %s", sortBy, resource)
		}
		order := "asc"
		if hasOrderBy {
			order = strings.ToLower(orderBy)
			if order != "asc" && order != "desc" {
				return nil, apperr.Validation("orderBy must be either asc or desc")
			}
		}
		sort = append(sort, map[string]any{sortBy: map[string]any{"order": order}})
	}

	if resource != "reviewType" {
		sort = append(sort, map[string]any{"updated": map[string]any{"order": "desc"}})
	}
	return sort, nil
}

func matchPhrase(field string, value any) map[string]any {
	return map[string]any{
		"match_phrase": map[string]any{field: value},
	}
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

func intParam(params map[string]any, key string, def int) (int, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}

	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int64:
		n = int(x)
	case float64:
		if x != float64(int(x)) {
			return 0, apperr.Validation("%s must be an integer", key)
		}
		n = int(x)
	case string:
		if strings.TrimSpace(x) == "" {
			return def, nil
		}
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, apperr.Validation("%s must be an integer", key)
		}
		n = parsed
	default:
		return 0, apperr.Validation("%s must be an integer", key)
	}

	if n < 1 {
		return 0, apperr.Validation("%s must be greater than or equal to 1", key)
	}
	return n, nil
}
