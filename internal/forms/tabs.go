package forms

// Tab identifies the visible auth panel.
type Tab string

const (
	TabLogin    Tab = "login"
	TabRegister Tab = "register"
)

// ParseTab maps a query value to a tab, defaulting to login.
func ParseTab(s string) Tab {
	if Tab(s) == TabRegister {
		return TabRegister
	}
	return TabLogin
}

// Tabs is the auth page's tab state and the alert currently shown on each.
// A tab switch is a fresh GET of the auth page, so it starts from NewTabs and
// no alert survives it.
type Tabs struct {
	Active Tab
	Alerts map[Tab]*Alert
}

// NewTabs starts on active with no alerts.
func NewTabs(active Tab) *Tabs {
	return &Tabs{Active: active, Alerts: make(map[Tab]*Alert)}
}

// Show places an alert on tab.
func (t *Tabs) Show(tab Tab, a Alert) {
	t.Alerts[tab] = &a
}

// Alert returns the alert on tab, or nil.
func (t *Tabs) Alert(tab Tab) *Alert {
	return t.Alerts[tab]
}
