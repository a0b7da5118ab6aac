package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/internal/service/receipt"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
	"github.com/ktnshm/receipt-scanner/pkg/queue"
	"github.com/ktnshm/receipt-scanner/pkg/storage"
)

// ReceiptHandler serves the receipt extraction endpoints. Store and queue
// are optional; without them the batch endpoints report unavailability.
type ReceiptHandler struct {
	service receipt.Processor
	store   storage.Storage
	queue   queue.Queue
	logger  logger.Logger
}

func NewReceiptHandler(svc receipt.Processor, store storage.Storage, q queue.Queue, log logger.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		service: svc,
		store:   store,
		queue:   q,
		logger:  log,
	}
}

// Process handles a synchronous single-receipt upload. Pipeline failures
// come back as a 200 envelope with success=false; only malformed requests
// get error status codes.
func (h *ReceiptHandler) Process(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "ファイルがアップロードされていません。",
		})
		return
	}
	defer file.Close()

	mode, ok := models.ParseMode(c.DefaultPostForm("mode", c.Query("mode")))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "不正な処理モードです。",
		})
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "ファイルの読み込みに失敗しました。",
		})
		return
	}

	h.logger.Info("processing upload",
		logger.String("filename", header.Filename),
		logger.Int64("size", header.Size),
		logger.String("mode", string(mode)),
	)

	result := h.service.ProcessImage(c.Request.Context(), data, mode)
	c.JSON(http.StatusOK, result)
}

// Capabilities reports which engines are available and the modes a client
// may request.
func (h *ReceiptHandler) Capabilities(c *gin.Context) {
	caps := h.service.Capabilities()
	c.JSON(http.StatusOK, gin.H{
		"capabilities":     caps,
		"available_modes":  caps.AvailableModes(),
		"recommended_mode": caps.RecommendedMode(),
	})
}

// List returns all receipts processed since startup.
func (h *ReceiptHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"receipts": h.service.Records().List()})
}

// Export streams the stored receipts as a BOM-prefixed CSV attachment.
func (h *ReceiptHandler) Export(c *gin.Context) {
	records := h.service.Records()
	if records.Len() == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "エクスポートするデータがありません。"})
		return
	}
	data, err := records.ExportCSV()
	if err != nil {
		h.logger.Error("csv export failed", logger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "CSVの生成に失敗しました。"})
		return
	}
	filename := fmt.Sprintf("receipt_data_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Clear drops all stored receipts.
func (h *ReceiptHandler) Clear(c *gin.Context) {
	n := h.service.Records().Clear()
	h.logger.Info("cleared receipt records", logger.Int("count", n))
	c.JSON(http.StatusOK, gin.H{"message": "すべてのレシートデータを削除しました。"})
}

// ProcessBatch stores each upload and enqueues it for the worker.
func (h *ReceiptHandler) ProcessBatch(c *gin.Context) {
	if h.store == nil || h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "バッチ処理は利用できません。"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "不正なフォームデータです。"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "ファイルがアップロードされていません。"})
		return
	}
	modeStr := c.DefaultPostForm("mode", c.Query("mode"))
	if _, ok := models.ParseMode(modeStr); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"message": "不正な処理モードです。"})
		return
	}

	taskIDs := make([]string, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": "ファイルの読み込みに失敗しました。"})
			return
		}

		taskID := uuid.NewString()
		objectKey := taskID + filepath.Ext(fh.Filename)
		_, err = h.store.Store(c.Request.Context(), f, objectKey)
		f.Close()
		if err != nil {
			h.logger.Error("failed to store batch upload", logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "ファイルの保存に失敗しました。"})
			return
		}

		task := &queue.Task{
			ID:   taskID,
			Type: queue.TaskTypeReceiptProcess,
			Payload: map[string]string{
				"object_key": objectKey,
				"mode":       modeStr,
			},
			Metadata:  map[string]string{"filename": fh.Filename},
			CreatedAt: time.Now().UTC(),
		}
		if err := h.queue.Enqueue(c.Request.Context(), task); err != nil {
			h.logger.Error("failed to enqueue receipt task", logger.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "タスクの登録に失敗しました。"})
			return
		}
		taskIDs = append(taskIDs, taskID)
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message": fmt.Sprintf("%d件のレシートを処理キューに登録しました。", len(taskIDs)),
		"taskIds": taskIDs,
	})
}

// Status reports the state of a queued batch task.
func (h *ReceiptHandler) Status(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "バッチ処理は利用できません。"})
		return
	}
	status, err := h.queue.GetTaskStatus(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "タスクが見つかりません。"})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Cancel removes a pending batch task.
func (h *ReceiptHandler) Cancel(c *gin.Context) {
	if h.queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "バッチ処理は利用できません。"})
		return
	}
	if err := h.queue.CancelTask(c.Request.Context(), c.Param("taskId")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "タスクをキャンセルできませんでした。"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "タスクをキャンセルしました。"})
}
