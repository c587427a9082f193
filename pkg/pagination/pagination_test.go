package pagination_test

import (
	"net/http/httptest"
	"testing"

	"docflow/pkg/pagination"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func paramsFor(query string) pagination.Params {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return pagination.Parse(c)
}

func TestParse(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"defaults", "", pagination.Params{Page: 1, Limit: 20, Offset: 0}},
		{"explicit", "page=3&limit=10", pagination.Params{Page: 3, Limit: 10, Offset: 20}},
		{"zero page clamps", "page=0&limit=10", pagination.Params{Page: 1, Limit: 10, Offset: 0}},
		{"negative limit falls back", "page=2&limit=-5", pagination.Params{Page: 2, Limit: 20, Offset: 20}},
		{"limit capped", "limit=5000", pagination.Params{Page: 1, Limit: 100, Offset: 0}},
		{"garbage ignored", "page=abc&limit=xyz", pagination.Params{Page: 1, Limit: 20, Offset: 0}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, paramsFor(tc.query))
		})
	}
}
