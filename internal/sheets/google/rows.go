package google

import (
	"fmt"
	"strings"

	"moneytracker/internal/core"
	"moneytracker/internal/records"
)

var (
	incomeHeader  = []any{"ID", "Date", "Amount", "Classification", "Savings Tag", "Tithe", "Wants", "Savings", "User"}
	expenseHeader = []any{"ID", "Date", "Name", "Amount", "Category", "User"}
)

// incomeRow lays an income entry out in incomeHeader order. Amounts are
// written with two decimals so the sheet parses them as numbers.
func incomeRow(e core.IncomeEntry) []any {
	r := records.IncomeToRow(e)
	return []any{
		r.ID,
		r.Date,
		e.Amount.StringFixed(2),
		r.Classification,
		r.SavingsTag,
		e.Tithe.StringFixed(2),
		e.Wants.StringFixed(2),
		e.Savings.StringFixed(2),
		r.UserID,
	}
}

func expenseRow(e core.ExpenseEntry) []any {
	r := records.ExpenseToRow(e)
	return []any{r.ID, r.Date, r.Name, e.Amount.StringFixed(2), r.Category, r.UserID}
}

// findRow returns the 1-based sheet row whose id cell equals id, or -1.
// ids is column A as read from the sheet, so index 0 is row 1.
func findRow(ids []string, id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, v := range ids {
		if strings.TrimSpace(v) == id {
			return i + 1
		}
	}
	return -1
}

func rowRange(sheet string, row, width int) string {
	return fmt.Sprintf("%s!A%d:%s%d", sheet, row, columnName(width), row)
}

// columnName converts a 1-based column number to its A1 letters.
func columnName(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx >= 0 && idx < len(arr) {
		return arr[idx]
	}
	return ""
}
