package receipt

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sync"

	"github.com/ktnshm/receipt-scanner/internal/models"
)

// RecordStore keeps processed receipts in memory for listing and CSV
// export. Contents do not survive a restart.
type RecordStore struct {
	mu       sync.RWMutex
	receipts []models.Receipt
}

func NewRecordStore() *RecordStore {
	return &RecordStore{}
}

func (s *RecordStore) Add(r models.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, r)
}

// List returns a copy of the stored receipts in insertion order.
func (s *RecordStore) List() []models.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Receipt, len(s.receipts))
	copy(out, s.receipts)
	return out
}

// Clear drops all receipts and returns how many were removed.
func (s *RecordStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.receipts)
	s.receipts = nil
	return n
}

func (s *RecordStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.receipts)
}

var csvHeader = []string{"日付", "店名・会社名", "合計金額", "税抜価格", "税込価格", "費目タグ"}

// ExportCSV renders the store as UTF-8 CSV with a BOM so Excel detects
// the encoding. Absent amounts become empty cells.
func (s *RecordStore) ExportCSV() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var buf bytes.Buffer
	buf.WriteString("\uFEFF")
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, r := range s.receipts {
		row := []string{
			r.Date,
			r.StoreName,
			formatAmount(r.TotalAmount),
			formatAmount(r.TaxExcludedAmount),
			formatAmount(r.TaxIncludedAmount),
			r.ExpenseCategory,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	if *v == float64(int64(*v)) {
		return fmt.Sprintf("%d", int64(*v))
	}
	return fmt.Sprintf("%g", *v)
}
