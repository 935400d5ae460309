package api

import (
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentEscapesFileName(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		fileName string
	}{
		{"plain", "Option.ai_Report_Hiring_plan.txt"},
		{"quotes", `Option.ai_Report_Q3_"budget".txt`},
		{"non-ascii", "Option.ai_Report_預算討論.txt"},
		{"semicolon", "Option.ai_Report_a;b=c.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			attachment(c, tt.fileName, []byte("report"))

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "report", w.Body.String())
			disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
			require.NoError(t, err)
			assert.Equal(t, "attachment", disposition)
			assert.Equal(t, tt.fileName, params["filename"])
		})
	}
}
