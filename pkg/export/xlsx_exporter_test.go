package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func openBook(t *testing.T, payload []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "9А", SheetName("9А"))
	assert.Equal(t, "10Б", SheetName("  10/Б*  "))
	assert.Equal(t, unknownSheetName, SheetName("[]:*?/\\"))
	assert.Equal(t, unknownSheetName, SheetName(""))
	assert.Equal(t, "Класс_с_очень_длинным_названием", SheetName("Класс_с_очень_длинным_названием_1"))
}

func TestUniqueSheetName(t *testing.T) {
	used := map[string]struct{}{}

	assert.Equal(t, "9А", uniqueSheetName("9А", used))
	assert.Equal(t, "9а_2", uniqueSheetName("9а", used))
	assert.Equal(t, "9А_3", uniqueSheetName("9А", used))

	long := strings.Repeat("x", maxSheetName)
	assert.Equal(t, long, uniqueSheetName(long, used))
	second := uniqueSheetName(long, used)
	assert.Len(t, second, maxSheetName)
	assert.True(t, strings.HasSuffix(second, "_2"))
}

func TestXLSXGroupsRowsIntoSheets(t *testing.T) {
	data := Dataset{
		Headers: []string{"Имя", "Фамилия"},
		GroupBy: "class",
		Rows: []map[string]string{
			{"Имя": "Пётр", "Фамилия": "Петров", "class": "9А"},
			{"Имя": "Мария", "Фамилия": "Сидорова", "class": "10Б"},
			{"Имя": "Олег", "Фамилия": "Новиков", "class": "9А"},
			{"Имя": "Анна", "Фамилия": "Смирнова", "class": ""},
		},
	}

	payload, err := NewXLSXExporter().Render(data)
	require.NoError(t, err)

	f := openBook(t, payload)
	assert.Equal(t, []string{"9А", "10Б", unknownSheetName}, f.GetSheetList())

	rows, err := f.GetRows("9А")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Имя", "Фамилия"}, rows[0])
	assert.Equal(t, []string{"Олег", "Новиков"}, rows[2])
}

func TestXLSXEmptyDatasetWritesHeaders(t *testing.T) {
	payload, err := NewXLSXExporter().Render(Dataset{Headers: []string{"Предмет"}, EmptySheet: "Нет данных"})
	require.NoError(t, err)

	f := openBook(t, payload)
	assert.Equal(t, []string{"Нет данных"}, f.GetSheetList())
	rows, err := f.GetRows("Нет данных")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Предмет"}}, rows)
}

func TestXLSXRenderBookKeepsNamesUnique(t *testing.T) {
	payload, err := NewXLSXExporter().RenderBook(
		Dataset{Headers: []string{"a"}, Sheet: "Отчёт", Rows: []map[string]string{{"a": "1"}}},
		Dataset{Headers: []string{"b"}, Sheet: "отчёт", Rows: []map[string]string{{"b": "2"}}},
	)
	require.NoError(t, err)

	f := openBook(t, payload)
	assert.Equal(t, []string{"Отчёт", "отчёт_2"}, f.GetSheetList())
}

func TestXLSXRequiresHeaders(t *testing.T) {
	_, err := NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)

	_, err = NewXLSXExporter().RenderBook()
	assert.Error(t, err)
}
