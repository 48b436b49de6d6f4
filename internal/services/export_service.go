package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dfsouza/patrimonio-api/internal/models"
	"github.com/dfsouza/patrimonio-api/internal/repository"
	"github.com/xuri/excelize/v2"
)

// ExportService produces spreadsheet exports over the same scoped
// list() output the screens consume. It never sees unscoped data.
type ExportService struct {
	inventory *InventoryService
}

// NewExportService creates a new export service
func NewExportService(inventory *InventoryService) *ExportService {
	return &ExportService{inventory: inventory}
}

// InventoryXLSX renders the actor's visible inventory as an XLSX file
func (s *ExportService) InventoryXLSX(ctx context.Context, actor *models.User) ([]byte, string, error) {
	query := repository.NewListQuery()
	query.PerPage = 0 // export everything visible

	items, _, err := s.inventory.List(ctx, actor, query)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Inventário"
	_ = f.SetSheetName("Sheet1", sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	headers := []string{"Campus", "Categoria", "Setor", "Sala", "Marca", "Nº de Série", "Patrimônio", "Status", "Responsável", "Fixo", "Cadastrado em"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for row, item := range items {
		resp := item.ToResponse()
		fixed := "não"
		if resp.IsFixed {
			fixed = "sim"
		}
		values := []interface{}{
			resp.CampusName,
			resp.CategoryName,
			resp.SectorName,
			resp.Room,
			resp.Brand,
			resp.SerialNumber,
			resp.PatrimonyTag,
			resp.Status,
			resp.ResponsibleName,
			fixed,
			resp.CreatedAt.Format("2006-01-02 15:04"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("inventario_%s.xlsx", time.Now().Format("2006-01-02"))
	return buf.Bytes(), filename, nil
}
