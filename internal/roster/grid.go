package roster

import (
	"github.com/pyreportal/kiosk-agent/internal/models"
)

// DefaultPageSize is the grid capacity: ten cards laid out five by two.
const DefaultPageSize = 10

// Slot is one of the fixed visual positions on a grid page. Placeholder
// slots keep the page at exactly PageSize entries so the touch layout
// never reflows between pages.
type Slot struct {
	Person      *models.Person `json:"person,omitempty"`
	Placeholder bool           `json:"placeholder"`
	Selected    bool           `json:"selected"`
}

// Page is a rendered view of one roster page.
type Page struct {
	Slots        []Slot `json:"slots"`
	Index        int    `json:"index"`
	TotalPages   int    `json:"total_pages"`
	PrevEnabled  bool   `json:"prev_enabled"`
	NextEnabled  bool   `json:"next_enabled"`
	ShowControls bool   `json:"show_controls"`
}

// Grid presents a bounded roster page with stable slot count, navigation
// and single-select state. It performs no I/O: it operates over an
// already-fetched candidate pool.
type Grid struct {
	people   []models.Person
	pageSize int
	page     int
	selected *int
}

// NewGrid builds a grid over the candidate pool. A non-positive pageSize
// falls back to DefaultPageSize.
func NewGrid(people []models.Person, pageSize int) *Grid {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Grid{people: people, pageSize: pageSize}
}

// TotalPages is ceil(len(pool) / pageSize); an empty pool still has one page.
func (g *Grid) TotalPages() int {
	if len(g.people) == 0 {
		return 1
	}
	return (len(g.people) + g.pageSize - 1) / g.pageSize
}

// CurrentPage returns the 0-indexed page position.
func (g *Grid) CurrentPage() int {
	return g.page
}

// Next advances a page if one exists.
func (g *Grid) Next() {
	if g.page < g.TotalPages()-1 {
		g.page++
	}
}

// Prev steps back a page if one exists.
func (g *Grid) Prev() {
	if g.page > 0 {
		g.page--
	}
}

// SetPage jumps to the given page, clamped into range.
func (g *Grid) SetPage(page int) {
	if page < 0 {
		page = 0
	}
	if max := g.TotalPages() - 1; page > max {
		page = max
	}
	g.page = page
}

// Select marks the person with the given id as selected. Selecting a
// different person replaces the previous selection; the grid never
// accumulates picks. Selecting an id outside the pool is a no-op.
func (g *Grid) Select(personID int) bool {
	for i := range g.people {
		if g.people[i].ID == personID {
			id := personID
			g.selected = &id
			return true
		}
	}
	return false
}

// ClearSelection drops the current pick.
func (g *Grid) ClearSelection() {
	g.selected = nil
}

// Selected returns the currently picked person, if any.
func (g *Grid) Selected() *models.Person {
	if g.selected == nil {
		return nil
	}
	for i := range g.people {
		if g.people[i].ID == *g.selected {
			person := g.people[i]
			return &person
		}
	}
	return nil
}

// Render emits the current page: real people first, then placeholders up
// to the fixed capacity. Navigation controls are omitted entirely when the
// pool fits on a single page.
func (g *Grid) Render() Page {
	total := g.TotalPages()
	start := g.page * g.pageSize
	end := start + g.pageSize
	if end > len(g.people) {
		end = len(g.people)
	}

	slots := make([]Slot, 0, g.pageSize)
	if start < len(g.people) {
		for i := start; i < end; i++ {
			person := g.people[i]
			slots = append(slots, Slot{
				Person:   &person,
				Selected: g.selected != nil && *g.selected == person.ID,
			})
		}
	}
	for len(slots) < g.pageSize {
		slots = append(slots, Slot{Placeholder: true})
	}

	return Page{
		Slots:        slots,
		Index:        g.page,
		TotalPages:   total,
		PrevEnabled:  g.page > 0,
		NextEnabled:  g.page < total-1,
		ShowControls: total > 1,
	}
}
