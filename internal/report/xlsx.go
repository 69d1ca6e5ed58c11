package report

import (
	"fmt"
	"path/filepath"
	"strconv"

	"chcrawler/internal/crawler"

	"github.com/xuri/excelize/v2"
)

const (
	SpreadsheetFile = "results.xlsx"
	SheetName       = "Scrap Results"
)

// column layout of the sheet: overview in A-B, officers in C-L and
// histories in M-P
var (
	overviewColumns = []string{"Name", "Data"}
	officerColumns  = []string{"Number", "Name", "Status", "Occupation", "Role", "Birth Date", "Nationality", "Address", "Residence", "Appointed/Resign"}
	historyColumns  = []string{"Number", "Date", "Info", "URL"}
)

const missingValue = "-"

type sheetStyles struct {
	table   int
	title   int
	info    int
	company int
	section int
}

// sheetWriter keeps the first error so a whole sheet can be written
// before checking.
type sheetWriter struct {
	file   *excelize.File
	sheet  string
	styles sheetStyles
	err    error
}

func (w *sheetWriter) cell(column string, row int, value string, style int) {
	if w.err != nil {
		return
	}
	axis := column + strconv.Itoa(row)
	if w.err = w.file.SetCellStr(w.sheet, axis, value); w.err != nil {
		return
	}
	w.err = w.file.SetCellStyle(w.sheet, axis, axis, style)
}

// banner writes value across the columns from-to of row.
func (w *sheetWriter) banner(from, to string, row int, value string, style int) {
	w.cell(from, row, value, style)
	if w.err != nil {
		return
	}
	first := from + strconv.Itoa(row)
	last := to + strconv.Itoa(row)
	if w.err = w.file.MergeCell(w.sheet, first, last); w.err != nil {
		return
	}
	w.err = w.file.SetCellStyle(w.sheet, first, last, style)
}

func columnName(index int) string {
	name, err := excelize.ColumnNumberToName(index)
	if err != nil {
		panic(err)
	}
	return name
}

func newStyles(file *excelize.File) (sheetStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	fill := func(color string) excelize.Fill {
		return excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{color}}
	}
	left := &excelize.Alignment{Horizontal: "left"}

	var styles sheetStyles
	definitions := []struct {
		dest  *int
		style excelize.Style
	}{
		{dest: &styles.table, style: excelize.Style{Border: border, Font: &excelize.Font{Bold: true}, Fill: fill("#DDDDDD"), Alignment: &excelize.Alignment{Horizontal: "center"}}},
		{dest: &styles.title, style: excelize.Style{Border: border, Font: &excelize.Font{Bold: true}, Fill: fill("#DDDDDD"), Alignment: left}},
		{dest: &styles.info, style: excelize.Style{Border: border, Font: &excelize.Font{Bold: true}, Alignment: left}},
		{dest: &styles.company, style: excelize.Style{Border: border, Font: &excelize.Font{Bold: true}, Fill: fill("#D98AF8"), Alignment: left}},
		{dest: &styles.section, style: excelize.Style{Border: border, Font: &excelize.Font{Size: 14}, Fill: fill("#66D248"), Alignment: left}},
	}
	for _, definition := range definitions {
		id, err := file.NewStyle(&definition.style)
		if err != nil {
			return sheetStyles{}, err
		}
		*definition.dest = id
	}
	return styles, nil
}

func (w *sheetWriter) header() {
	groups := []struct {
		title   string
		first   int
		columns []string
	}{
		{title: "Overview", first: 1, columns: overviewColumns},
		{title: "Officers", first: 3, columns: officerColumns},
		{title: "Histories", first: 13, columns: historyColumns},
	}
	for _, group := range groups {
		from := columnName(group.first)
		to := columnName(group.first + len(group.columns) - 1)
		w.banner(from, to, 1, group.title, w.styles.table)
		for i, column := range group.columns {
			w.cell(columnName(group.first+i), 2, column, w.styles.title)
		}
	}
}

// record writes the banner and the detail rows of a record starting at
// row, it returns the next free row.
func (w *sheetWriter) record(record crawler.Record, row int) int {
	title := fmt.Sprintf("[%d] %s (%s)", record.Number, record.Company, record.Identity)
	w.banner("A", "P", row, title, w.styles.company)
	row++

	overview := []struct {
		name  string
		value *string
	}{
		{"Address", record.Overview.Address},
		{"Status", record.Overview.Status},
		{"Type", record.Overview.Type},
		{"Incorporated", record.Overview.Incorporated},
		{"Dissolved", record.Overview.Dissolved},
	}
	for i, field := range overview {
		w.cell("A", row+i, field.name, w.styles.info)
		w.cell("B", row+i, valueOr(field.value, missingValue), w.styles.info)
	}

	for i, officer := range record.Officers {
		dates := officer.Appointed
		if dates == nil {
			dates = officer.Resigned
		}
		values := []string{
			strconv.Itoa(i + 1),
			valueOr(officer.Name, missingValue),
			valueOr(officer.Status, missingValue),
			valueOr(officer.Occupation, missingValue),
			valueOr(officer.Role, missingValue),
			valueOr(officer.Birth, missingValue),
			valueOr(officer.Nationality, missingValue),
			valueOr(officer.Address, missingValue),
			valueOr(officer.Residence, missingValue),
			valueOr(dates, missingValue),
		}
		for j, value := range values {
			w.cell(columnName(3+j), row+i, value, w.styles.info)
		}
	}

	for i, history := range record.Histories {
		values := []string{
			strconv.Itoa(history.SequenceNo),
			history.Date,
			history.Description,
			valueOr(history.DocumentURL, missingValue),
		}
		for j, value := range values {
			w.cell(columnName(13+j), row+i, value, w.styles.info)
		}
	}

	return row + max(len(overview), len(record.Officers), len(record.Histories))
}

// WriteSpreadsheet writes report to <dir>/results.xlsx and returns the
// path.
func WriteSpreadsheet(dir string, report crawler.Report) (string, error) {
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SpreadsheetFile)

	file := excelize.NewFile()
	defer file.Close()

	err := file.SetSheetName(file.GetSheetName(0), SheetName)
	if err != nil {
		return "", outputError("create sheet", err)
	}
	styles, err := newStyles(file)
	if err != nil {
		return "", outputError("create styles", err)
	}
	err = file.SetColWidth(SheetName, "A", "P", 18)
	if err != nil {
		return "", outputError("size columns", err)
	}

	w := &sheetWriter{file: file, sheet: SheetName, styles: styles}
	w.header()

	row := 3
	for _, outcome := range report.Outcomes {
		title := fmt.Sprintf("%d companies found for \"%s\"", len(outcome.Matches), outcome.Keywords)
		w.banner("A", "P", row, title, w.styles.section)
		row++
		for _, record := range outcome.Matches {
			row = w.record(record, row)
		}
	}
	if w.err != nil {
		return "", outputError("fill sheet", w.err)
	}

	err = file.SaveAs(path)
	if err != nil {
		return "", outputError("save "+path, err)
	}
	return path, nil
}
