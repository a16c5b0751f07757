package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/teamboard/internal/presentation/tui"
	"github.com/aretw0/teamboard/pkg/domain"
	"github.com/aretw0/teamboard/pkg/picker"
	"github.com/aretw0/teamboard/pkg/taxonomy"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPicker(t *testing.T) *tui.Picker {
	t.Helper()
	store, err := taxonomy.Build([]taxonomy.Definition{
		{
			ID: "finance-management", Name: "Finance Management", Category: "enabling",
			Children: []taxonomy.Definition{
				{ID: "taxes", Name: "Taxes", Children: []taxonomy.Definition{
					{ID: "tax-compliance", Name: "Tax Compliance"},
				}},
				{ID: "treasury", Name: "Treasury"},
			},
		},
		{ID: "customer-management", Name: "Customer Management", Category: "core"},
	})
	require.NoError(t, err)

	s := picker.Open(store.Index(), "team-1", nil)
	driver := tui.DriverFunc(func(a domain.PickerAction) (domain.PickerView, error) {
		if err := s.Apply(a); err != nil {
			return domain.PickerView{}, err
		}
		return s.View(), nil
	})
	return tui.NewPicker("Platform", s.View(), driver)
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func rowIDs(p *tui.Picker) []string {
	var ids []string
	for _, r := range p.PickerView().Rows {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestPicker_SelectAndExpand(t *testing.T) {
	p := newPicker(t)

	// Roots start collapsed.
	assert.Equal(t, []string{"finance-management", "customer-management"}, rowIDs(p))

	p.Update(key(tea.KeyRight))
	assert.Equal(t, []string{"finance-management", "taxes", "treasury", "customer-management"}, rowIDs(p))

	p.Update(key(tea.KeyDown))
	p.Update(runes("x"))
	assert.Equal(t, []string{"taxes"}, p.PickerView().Selected)

	p.Update(key(tea.KeyRight))
	assert.Equal(t, []string{"finance-management", "taxes", "tax-compliance", "treasury", "customer-management"}, rowIDs(p))

	p.Update(key(tea.KeyLeft))
	assert.NotContains(t, rowIDs(p), "tax-compliance")
	assert.Contains(t, rowIDs(p), "taxes")
	assert.Equal(t, []string{"taxes"}, p.PickerView().Selected)
}

func TestPicker_Search(t *testing.T) {
	p := newPicker(t)

	p.Update(runes("/"))
	p.Update(runes("tax"))
	v := p.PickerView()
	assert.Equal(t, "tax", v.Query)
	assert.False(t, v.NoResults)

	// Leaving search mode returns keys to navigation.
	p.Update(key(tea.KeyEsc))
	p.Update(runes("x"))
	assert.Len(t, p.PickerView().Selected, 1)
	assert.Equal(t, "tax", p.PickerView().Query)
}

func TestPicker_CategoryAndLevel(t *testing.T) {
	p := newPicker(t)

	p.Update(key(tea.KeyTab))
	assert.Equal(t, domain.CategoryCore, p.PickerView().Category)
	require.Len(t, p.PickerView().Rows, 1)
	assert.Equal(t, "customer-management", p.PickerView().Rows[0].ID)

	p.Update(key(tea.KeyTab))
	assert.Equal(t, domain.CategoryEnabling, p.PickerView().Category)

	p.Update(runes("2"))
	assert.Equal(t, 2, p.PickerView().Level)
}

func TestPicker_ConfirmAndCancel(t *testing.T) {
	p := newPicker(t)
	_, cmd := p.Update(key(tea.KeyEnter))
	assert.True(t, p.Confirmed)
	require.NotNil(t, cmd)

	p = newPicker(t)
	_, cmd = p.Update(key(tea.KeyEsc))
	assert.False(t, p.Confirmed)
	require.NotNil(t, cmd)
}

func TestPicker_View(t *testing.T) {
	p := newPicker(t)
	out := p.View()
	assert.Contains(t, out, "Platform")
	assert.Contains(t, out, "Finance Management")
	assert.Contains(t, out, "Customer Management")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.NotEmpty(t, buf.String())
}

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer(80)
	require.NoError(t, err)
	out, err := render("# Taxes")
	require.NoError(t, err)
	assert.Contains(t, out, "Taxes")
}
