package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/nutriguide/nutriload/internal/etl"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

// Renderer writes reports to one output.
type Renderer struct {
	w      io.Writer
	styled bool
}

// NewRenderer returns a Renderer for w. Styling follows IsStyled(w).
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w, styled: IsStyled(w)}
}

// NewPlainRenderer returns a Renderer that never emits escape codes.
func NewPlainRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

func (r *Renderer) paint(style lipgloss.Style, text string) string {
	if !r.styled {
		return text
	}
	return style.Render(text)
}

func (r *Renderer) table(headers []string, rows [][]string) string {
	t := table.New().Headers(headers...).Rows(rows...)
	if !r.styled {
		return t.Border(lipgloss.ASCIIBorder()).
			StyleFunc(func(row, col int) lipgloss.Style { return lipgloss.NewStyle().Padding(0, 1) }).
			String()
	}
	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		}).
		String()
}

// Summary writes the stage table, the filtered-row breakdown and the
// threshold verdict of a run. A summary of a failed run shows the stages
// that committed before the failure.
func (r *Renderer) Summary(s *etl.Summary) error {
	var b strings.Builder

	title := "SR Legacy load summary"
	if s.DryRun {
		title += " (dry run, nothing written)"
	}
	b.WriteString(r.paint(TitleStyle, title))
	b.WriteString(r.paint(MutedStyle, "  run "+s.RunID))
	b.WriteString("\n")

	rows := make([][]string, 0, len(s.Stages))
	for _, st := range s.Stages {
		rows = append(rows, []string{
			st.Stage,
			strconv.Itoa(st.Read),
			strconv.Itoa(st.Dropped()),
			strconv.Itoa(st.Written),
			strconv.FormatInt(st.Inserted, 10),
			strconv.FormatInt(st.Skipped(), 10),
			st.Elapsed.Round(time.Millisecond).String(),
		})
	}
	b.WriteString(r.table([]string{"Stage", "Read", "Filtered", "Written", "New", "Existing", "Time"}, rows))
	b.WriteString("\n")

	if details := filterDetails(s); len(details) > 0 {
		b.WriteString("Filtered rows:\n")
		for _, d := range details {
			fmt.Fprintf(&b, "  %s %s\n", SymbolBullet, d)
		}
	}

	if seed, ok := s.Stage(etl.StageSeed); ok && len(seed.ByCategory) > 0 {
		b.WriteString("Daily facts by category: ")
		b.WriteString(formatByCategory(seed.ByCategory))
		b.WriteString("\n")
	}

	b.WriteString(r.verdict(s))
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}

func (r *Renderer) verdict(s *etl.Summary) string {
	counts := fmt.Sprintf("%d facts loaded, threshold %d, elapsed %v",
		s.FactsLoaded, s.MinFactRecords, s.Elapsed.Round(time.Millisecond))

	var line string
	switch {
	case !s.Completed:
		line = r.paint(ErrorStyle, SymbolCross+" INCOMPLETE") + "  " + counts
	case s.Passed:
		line = r.paint(SuccessStyle, SymbolCheck+" PASSED") + "  " + counts
	default:
		line = r.paint(WarningStyle, SymbolCross+" BELOW THRESHOLD") + "  " + counts
	}

	if !r.styled {
		return line
	}
	return BoxStyle.Render(line)
}

func filterDetails(s *etl.Summary) []string {
	var out []string
	for _, st := range s.Stages {
		var parts []string
		add := func(n int, label string) {
			if n > 0 {
				parts = append(parts, fmt.Sprintf("%d %s", n, label))
			}
		}
		add(st.Malformed, "malformed")
		add(st.Excluded, "not in allow-list")
		add(st.Orphaned, "orphaned (unknown category)")
		add(st.InvalidRef, "invalid reference")
		add(st.InvalidAmount, "invalid amount")
		add(st.Duplicates, "duplicate")
		if len(parts) > 0 {
			out = append(out, st.Stage+": "+strings.Join(parts, ", "))
		}
	}
	return out
}

func formatByCategory(m map[string]int) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		name := k
		if name == "" {
			name = "(none)"
		}
		parts[i] = fmt.Sprintf("%s %d", name, m[k])
	}
	return strings.Join(parts, ", ")
}

// Status writes the row count of every table.
func (r *Renderer) Status(database string, counts []nutriload.TableCount) error {
	var b strings.Builder
	b.WriteString(r.paint(TitleStyle, "Table counts"))
	b.WriteString(r.paint(MutedStyle, "  "+database))
	b.WriteString("\n")

	rows := make([][]string, len(counts))
	var total int64
	for i, c := range counts {
		rows[i] = []string{c.Table, strconv.FormatInt(c.Rows, 10)}
		total += c.Rows
	}
	rows = append(rows, []string{"total", strconv.FormatInt(total, 10)})

	b.WriteString(r.table([]string{"Table", "Rows"}, rows))
	b.WriteString("\n")

	_, err := io.WriteString(r.w, b.String())
	return err
}
