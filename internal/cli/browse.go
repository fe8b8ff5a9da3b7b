package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	previewStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

const (
	browseListWidth = 36
	browseMinHeight = 5
)

// browseCommand creates the browse command, an interactive viewer for the
// permutations of one layout.
func (c *CLI) browseCommand() *cobra.Command {
	var includes []string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "browse <file>",
		Short: "Browse the permutations of a layout interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			popts := c.pipelineOptions(args[0])
			popts.IncludeDirs = append(popts.IncludeDirs, includes...)

			res, err := c.resolveLayout(cmd.Context(), popts, noCache)
			if err != nil {
				return err
			}
			if len(res.Permutations) == 0 {
				printWarning("%s produced no permutations", args[0])
				return nil
			}
			return runBrowse(cmd.Context(), NewPermutationListModel(res.Permutations, popts.Indent))
		},
	}

	cmd.Flags().StringArrayVarP(&includes, "include", "I", nil, "additional include directory (repeatable)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the resolution cache")

	return cmd
}

func runBrowse(ctx context.Context, m PermutationListModel) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// =============================================================================
// PermutationListModel - Interactive permutation viewer
// =============================================================================

// browseItem is one row of the permutation list.
type browseItem struct {
	Name string
	JSON []string
}

// PermutationListModel is the bubbletea model listing permutations next to a
// preview of the selected one.
type PermutationListModel struct {
	Items  []browseItem
	Cursor int
	Offset int
	Height int
	// Scroll is the first preview line shown.
	Scroll int
}

// NewPermutationListModel creates a list model over perms. Each row is named
// by the expanded filename template, or by its index.
func NewPermutationListModel(perms []resolve.Permutation, indent int) PermutationListModel {
	items := make([]browseItem, len(perms))
	for i, p := range perms {
		name := output.ExpandTemplate(p.Filename, p.Value)
		if name == "" {
			name = "#" + strconv.Itoa(i)
		}
		items[i] = browseItem{
			Name: name,
			JSON: strings.Split(string(output.Encode(p.Value, indent)), "\n"),
		}
	}
	return PermutationListModel{Items: items, Height: 15}
}

func (m PermutationListModel) Init() tea.Cmd {
	return nil
}

func (m PermutationListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				m.Scroll = 0
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				m.Scroll = 0
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "pgdown", "J":
			if last := len(m.Items[m.Cursor].JSON) - m.Height; m.Scroll < last {
				m.Scroll = min(m.Scroll+m.Height/2, last)
			}
		case "pgup", "K":
			m.Scroll = max(m.Scroll-m.Height/2, 0)
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < browseMinHeight {
			m.Height = browseMinHeight
		}
		if m.Cursor >= m.Offset+m.Height {
			m.Offset = m.Cursor - m.Height + 1
		}
	}
	return m, nil
}

func (m PermutationListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Permutations"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ select  pgup/pgdn scroll  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, truncate(m.Items[i].Name, browseListWidth)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Name").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return lipgloss.NewStyle().Foreground(colorGray).Bold(true)
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return listNormalStyle
		})

	lines := m.Items[m.Cursor].JSON
	from := min(m.Scroll, len(lines))
	to := min(from+m.Height, len(lines))
	preview := previewStyle.Render(strings.Join(lines[from:to], "\n"))

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, t.Render(), " ", preview))
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))

	return b.String()
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
