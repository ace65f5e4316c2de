package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const transactionsSheet = "Transactions"

var transactionHeaders = []string{"Date", "Description", "Amount", "Category", "Expense", "Flagged", "Flag Reason"}

// ExportTransactionsXLSX renders the document's transactions as an XLSX workbook.
func (s *DocumentService) ExportTransactionsXLSX(ctx context.Context, userID, documentID uuid.UUID) ([]byte, error) {
	start := time.Now()
	if _, err := s.ownedDocument(ctx, userID, documentID); err != nil {
		return nil, err
	}

	rows, err := s.txRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", transactionsSheet); err != nil {
		return nil, err
	}

	for i, h := range transactionHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(transactionsSheet, cell, h)
	}

	for i, tx := range rows {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(transactionsSheet, cell, v)
		}

		write(1, tx.Date.Format("2006-01-02"))
		write(2, tx.Description)
		amount, _ := tx.Amount.Float64()
		write(3, amount)
		write(4, deref(tx.Category))
		write(5, tx.IsExpense)
		write(6, tx.IsFlagged)
		write(7, deref(tx.FlagReason))
	}

	_ = f.SetColWidth(transactionsSheet, "A", "A", 12)
	_ = f.SetColWidth(transactionsSheet, "B", "B", 48)
	_ = f.SetColWidth(transactionsSheet, "C", "C", 14)
	_ = f.SetColWidth(transactionsSheet, "D", "D", 20)
	_ = f.SetColWidth(transactionsSheet, "G", "G", 40)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("Exported transactions",
		zap.String("document_id", documentID.String()),
		zap.Int("rows", len(rows)),
		zap.Int64("elapsed_ms", time.Since(start).Milliseconds()),
	)
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
