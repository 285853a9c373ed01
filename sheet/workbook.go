package sheet

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/xuri/excelize/v2"
)

const (
	dataColumnWidth  = 20
	qrColumnWidth    = 25
	barcodeColWidth  = 50
	imageRowHeight   = 80
	qrImagePixels    = 100
	barcodeImageWide = 200
)

// WriteWorkbook builds an xlsx with the record columns plus an image column.
// images[i] belongs to records[i]; a nil entry leaves the cell empty.
// barcode switches the sheet and column titles.
func WriteWorkbook(records []Record, images [][]byte, barcode bool) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheetName, imageTitle, imageWidth, colWidth := "QR Codes", "QR Code", qrImagePixels, float64(qrColumnWidth)
	if barcode {
		sheetName, imageTitle, imageWidth, colWidth = "Barcodes", "Barcode", barcodeImageWide, barcodeColWidth
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, err
	}

	keys := records[0].Keys
	header := make([]interface{}, 0, len(keys)+1)
	for _, k := range keys {
		header = append(header, k)
	}
	header = append(header, imageTitle)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, err
	}

	lastData, err := excelize.ColumnNumberToName(len(keys))
	if err != nil {
		return nil, err
	}
	imageCol, err := excelize.ColumnNumberToName(len(keys) + 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, "A", lastData, dataColumnWidth); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheetName, imageCol, imageCol, colWidth); err != nil {
		return nil, err
	}

	for i, rec := range records {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(rec.Values))
		for j, v := range rec.Values {
			values[j] = v
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return nil, err
		}

		if i >= len(images) || len(images[i]) == 0 {
			continue
		}
		if err := f.SetRowHeight(sheetName, row, imageRowHeight); err != nil {
			return nil, err
		}
		scale := 1.0
		if w, _ := pngSize(images[i]); w > 0 {
			scale = float64(imageWidth) / float64(w)
		}
		if err := f.AddPictureFromBytes(sheetName, fmt.Sprintf("%s%d", imageCol, row), &excelize.Picture{
			Extension: ".png",
			File:      images[i],
			Format: &excelize.GraphicOptions{
				ScaleX:      scale,
				ScaleY:      scale,
				Positioning: "oneCell",
			},
		}); err != nil {
			return nil, fmt.Errorf("embed image row %d: %w", row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Template returns the sample workbook offered for download.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	const name = "Template"
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	rows := [][]interface{}{
		{"ID", "Họ và Tên", "Phòng Ban", "Chức Vụ"},
		{"001", "Nguyen Van A", "Kỹ Thuật", "Nhân viên"},
		{"002", "Tran Thi B", "Kế Toán", "Trưởng phòng"},
		{"003", "Le Van C", "Nhân Sự", "Thực tập sinh"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		row := row
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return nil, err
		}
	}
	for col, width := range map[string]float64{"A": 10, "B": 20, "C": 15, "D": 15} {
		if err := f.SetColWidth(name, col, col, width); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pngSize(data []byte) (int, int) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0
	}
	return cfg.Width, cfg.Height
}
