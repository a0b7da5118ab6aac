package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

type stubProcessor struct {
	result  *models.ProcessResult
	records *receipt.RecordStore
	gotMode models.ProcessingMode
}

func (s *stubProcessor) ProcessImage(_ context.Context, _ []byte, mode models.ProcessingMode) *models.ProcessResult {
	s.gotMode = mode
	return s.result
}

func (s *stubProcessor) Capabilities() models.Capabilities {
	return models.Capabilities{OCR: true, Generative: true, Vision: true}
}

func (s *stubProcessor) Records() *receipt.RecordStore { return s.records }

func newTestRouter(stub *stubProcessor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewReceiptHandler(stub, nil, nil, logger.NewTestLogger())
	r.POST("/process", h.Process)
	r.GET("/capabilities", h.Capabilities)
	r.GET("/receipts", h.List)
	r.GET("/export", h.Export)
	r.DELETE("/receipts", h.Clear)
	r.POST("/batch", h.ProcessBatch)
	return r
}

func uploadRequest(t *testing.T, url, field, mode string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, "receipt.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	if mode != "" {
		require.NoError(t, w.WriteField("mode", mode))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestProcessEndpoint(t *testing.T) {
	stub := &stubProcessor{
		result: &models.ProcessResult{
			Success:          true,
			Message:          "OCR処理でレシート情報を抽出しました。",
			Data:             &models.Receipt{StoreName: "店", Source: models.SourcePattern},
			ProcessingMethod: models.SourcePattern,
		},
		records: receipt.NewRecordStore(),
	}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/process", "file", "ocr"))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ModePattern, stub.gotMode)

	var result models.ProcessResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Success)
	assert.Equal(t, "店", result.Data.StoreName)
}

func TestProcessEndpointRejectsBadMode(t *testing.T) {
	stub := &stubProcessor{records: receipt.NewRecordStore()}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/process", "file", "hybrid"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProcessEndpointRequiresFile(t *testing.T) {
	stub := &stubProcessor{records: receipt.NewRecordStore()}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/process", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCapabilitiesEndpoint(t *testing.T) {
	stub := &stubProcessor{records: receipt.NewRecordStore()}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/capabilities", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		RecommendedMode string   `json:"recommended_mode"`
		AvailableModes  []string `json:"available_modes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "auto", resp.RecommendedMode)
	assert.Contains(t, resp.AvailableModes, "vision")
}

func TestExportEndpointEmpty(t *testing.T) {
	stub := &stubProcessor{records: receipt.NewRecordStore()}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportEndpoint(t *testing.T) {
	records := receipt.NewRecordStore()
	amount := 1500.0
	records.Add(models.Receipt{StoreName: "店", Date: "2023-05-15", TotalAmount: &amount})
	stub := &stubProcessor{records: records}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "店名・会社名")
}

func TestClearEndpoint(t *testing.T) {
	records := receipt.NewRecordStore()
	records.Add(models.Receipt{StoreName: "店"})
	stub := &stubProcessor{records: records}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/receipts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, records.Len())
}

func TestBatchEndpointUnavailable(t *testing.T) {
	stub := &stubProcessor{records: receipt.NewRecordStore()}
	r := newTestRouter(stub)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, uploadRequest(t, "/batch", "files", ""))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
