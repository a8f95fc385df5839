package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/diagram"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// =============================================================================
// InspectModel - Interactive unit browser
// =============================================================================

// InspectModel is the bubbletea model behind `clausetree inspect`. The left
// pane lists units; the right pane shows the selected unit's attachments and
// the diagram nodes generated for it.
type InspectModel struct {
	Units  []clause.Unit
	Head   int
	Nodes  [][]diagram.NodeDoc // per unit, in graph order
	Cursor int
	Height int
	Offset int
}

// NewInspectModel creates a browser over units and the graph built from them.
func NewInspectModel(units []clause.Unit, head int, g *diagram.Graph) InspectModel {
	return InspectModel{
		Units:  units,
		Head:   head,
		Nodes:  nodesByUnit(len(units), g),
		Height: 15,
	}
}

// nodesByUnit groups the unit-scoped nodes of g by unit index.
func nodesByUnit(n int, g *diagram.Graph) [][]diagram.NodeDoc {
	out := make([][]diagram.NodeDoc, n)
	if g == nil {
		return out
	}
	for _, nd := range diagram.Export(g).Nodes {
		if nd.Unit != nil && *nd.Unit >= 0 && *nd.Unit < n {
			out[*nd.Unit] = append(out[*nd.Unit], nd)
		}
	}
	return out
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Units)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "home", "g":
			m.Cursor, m.Offset = 0, 0
		case "end", "G":
			m.Cursor = len(m.Units) - 1
			if m.Cursor >= m.Height {
				m.Offset = m.Cursor - m.Height + 1
			}
		case "h":
			if m.Head >= 0 && m.Head < len(m.Units) {
				m.Cursor = m.Head
				if m.Cursor < m.Offset || m.Cursor >= m.Offset+m.Height {
					m.Offset = max(0, m.Cursor-m.Height/2)
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Inspect Description"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  h head  g/G first/last  q quit"))
	b.WriteString("\n\n")

	if len(m.Units) == 0 {
		b.WriteString(listDimStyle.Render("  no units"))
		return b.String()
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.listView(), " ", m.detailView()))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Units))))
	return b.String()
}

func (m InspectModel) listView() string {
	end := min(m.Offset+m.Height, len(m.Units))

	var lines []string
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := " "
		if i == m.Head {
			marker = StyleSuccess.Render("*")
		}
		line := fmt.Sprintf("%s%s %3d  %-16s", cursor, marker, i, truncate(phonOrDash(m.Units[i].Phon), 16))

		switch {
		case i == m.Cursor:
			lines = append(lines, listSelectedStyle.Render(line))
		case !m.Units[i].HasTop() && len(m.Units[i].Bottoms) == 0:
			lines = append(lines, listDimStyle.Render(line))
		default:
			lines = append(lines, listNormalStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m InspectModel) detailView() string {
	u := m.Units[m.Cursor]

	var b strings.Builder
	title := fmt.Sprintf("unit %d", m.Cursor)
	if m.Cursor == m.Head {
		title += StyleSuccess.Render("  head")
	}
	b.WriteString(StyleHighlight.Render(title))
	b.WriteString("\n\n")

	writeField := func(key, value string) {
		b.WriteString(listDimStyle.Render(fmt.Sprintf("%-8s", key)))
		b.WriteString(StyleValue.Render(value))
		b.WriteString("\n")
	}
	writeField("phon", phonOrDash(u.Phon))
	writeField("top", formatTop(u.Top))
	if u.Top != nil && u.Top.Kind.IsPeriphery() {
		base, _ := u.Top.Kind.Base()
		writeField("", "periphery of "+base.String())
	}
	writeField("bottoms", formatBottoms(u.Bottoms))

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("nodes"))
	b.WriteString("\n")
	for _, nd := range m.Nodes[m.Cursor] {
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			StyleNumber.Render(fmt.Sprintf("%-10s", nd.ID)),
			listDimStyle.Render(fmt.Sprintf("%-16s", nd.Role)),
			StyleValue.Render(nd.Label)))
	}

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// =============================================================================
// Helpers
// =============================================================================

// truncate shortens s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
