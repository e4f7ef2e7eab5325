package worklist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/calllist-cli/internal/config"
)

func testLayout() config.ExcelConfig {
	return config.ExcelConfig{
		SheetName:  "架電リスト",
		SubjectCol: 0,
		RegionCol:  2,
		PhoneCol:   10,
	}
}

var testHeader = []string{"店舗名", "住所", "都道府県", "", "", "", "", "", "", "", "店舗番号"}

// callRow builds an 11-column row: subject in A, region in C, phone in K.
func callRow(subject, region, phone string) []string {
	row := make([]string, 11)
	row[0] = subject
	row[2] = region
	row[10] = phone
	return row
}

func createTestXLSX(t *testing.T, sheets map[string][][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	for name, rows := range sheets {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				cell := row.AddCell()
				cell.SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	err := f.Save(path)
	require.NoError(t, err)
	return path
}

func createCallList(t *testing.T, rows ...[]string) string {
	t.Helper()
	sheet := [][]string{testHeader}
	sheet = append(sheet, rows...)
	return createTestXLSX(t, map[string][][]string{"架電リスト": sheet})
}
