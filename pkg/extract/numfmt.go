package extract

import (
	"github.com/xuri/excelize/v2"
)

// builtinFormats holds the implicit codes of the built-in number formats
// that matter for display: numbers, percentages, currency and dates.
var builtinFormats = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `"$"#,##0_);("$"#,##0)`,
	6:  `"$"#,##0_);[Red]("$"#,##0)`,
	7:  `"$"#,##0.00_);("$"#,##0.00)`,
	8:  `"$"#,##0.00_);[Red]("$"#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	27: "[$-404]e/m/d",
	28: `[$-404]e"年"m"月"d"日"`,
	29: `[$-404]e"年"m"月"d"日"`,
	30: "m/d/yy",
	31: `yyyy"年"m"月"d"日"`,
	32: `hh"時"mm"分"`,
	33: `hh"時"mm"分"ss"秒"`,
	34: `yyyy"年"m"月"`,
	35: `m"月"d"日"`,
	36: "[$-404]e/m/d",
	37: "#,##0 ;(#,##0)",
	38: "#,##0 ;[Red](#,##0)",
	39: "#,##0.00;(#,##0.00)",
	40: "#,##0.00;[Red](#,##0.00)",
	41: `_(* #,##0_);_(* \(#,##0\);_(* "-"_);_(@_)`,
	42: `_("$"* #,##0_);_("$"* \(#,##0\);_("$"* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* \(#,##0.00\);_(* "-"??_);_(@_)`,
	44: `_("$"* #,##0.00_);_("$"* \(#,##0.00\);_("$"* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
	50: "[$-404]e/m/d",
	51: `[$-411]ggge"年"m"月"d"日"`,
	52: `yyyy"年"m"月"`,
	53: `m"月"d"日"`,
	54: `[$-411]ggge"年"m"月"d"日"`,
	55: `yyyy"年"m"月"`,
	56: `m"月"d"日"`,
	57: "[$-404]e/m/d",
	58: `[$-411]ggge"年"m"月"d"日"`,
}

// firstCustomFormatID is where workbook-defined number formats start.
const firstCustomFormatID = 164

// formatCache resolves style ids to number format codes once per workbook.
type formatCache struct {
	f     *excelize.File
	codes map[int]string
}

func newFormatCache(f *excelize.File) *formatCache {
	return &formatCache{f: f, codes: make(map[int]string)}
}

// formatOf returns the number format code of a cell, "" when unknown.
func (c *formatCache) formatOf(sheet, cell string) string {
	styleID, err := c.f.GetCellStyle(sheet, cell)
	if err != nil {
		return ""
	}
	if code, ok := c.codes[styleID]; ok {
		return code
	}
	code, ok := c.rawFormat(styleID)
	if !ok {
		if style, err := c.f.GetStyle(styleID); err == nil && style != nil {
			code = formatCode(style)
		}
	}
	c.codes[styleID] = code
	return code
}

// rawFormat resolves the numFmtId stored in the cell format record.
// GetStyle drops built-in ids it has no code for (currency 5-8 among them),
// so the id is read from the style sheet directly.
func (c *formatCache) rawFormat(styleID int) (string, bool) {
	ss := c.f.Styles
	if ss == nil || ss.CellXfs == nil || styleID < 0 || styleID >= len(ss.CellXfs.Xf) {
		return "", false
	}
	id := 0
	if p := ss.CellXfs.Xf[styleID].NumFmtID; p != nil {
		id = *p
	}
	if ss.NumFmts != nil {
		for _, nf := range ss.NumFmts.NumFmt {
			if nf != nil && nf.NumFmtID == id && nf.FormatCode != "" {
				return nf.FormatCode, true
			}
		}
	}
	if id >= firstCustomFormatID {
		return "", false
	}
	return builtinFormats[id], true
}

func formatCode(style *excelize.Style) string {
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		return *style.CustomNumFmt
	}
	return builtinFormats[style.NumFmt]
}
