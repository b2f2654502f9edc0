package clientsim

// Control surface used by tests and demo mode to act as the user sitting in
// front of the simulated browser.

// SelectRow marks the row node with the given id as selected and emits a
// rowSelected event, like a user clicking the row.
func (s *Sim) SelectRow(elementID, rowID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	row := w.findRow(rowID)
	if row == nil {
		return errRowMissing(rowID)
	}
	w.selected[rowID] = true
	s.emitLocked(elementID, "rowSelected", []any{row})
	return nil
}

// EditCell commits a cell edit to the row node, like a user typing a value
// and leaving edit mode.
func (s *Sim) EditCell(elementID, rowID, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	row := w.findRow(rowID)
	if row == nil {
		return errRowMissing(rowID)
	}
	row[field] = value
	s.emitLocked(elementID, "cellValueChanged", []any{map[string]any{
		"rowId": rowID,
		"field": field,
		"value": value,
	}})
	return nil
}

// BeginCellEdit stores a value in an open edit session. It stays invisible
// to reads until CommitEdits, modeling the grid's edit-mode timing.
func (s *Sim) BeginCellEdit(elementID, rowID, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	if w.findRow(rowID) == nil {
		return errRowMissing(rowID)
	}
	if w.pending[rowID] == nil {
		w.pending[rowID] = make(map[string]any)
	}
	w.pending[rowID][field] = value
	return nil
}

// CommitEdits stops all open edit sessions, committing their values to the
// row nodes.
func (s *Sim) CommitEdits(elementID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	w.commitEdits()
	return nil
}

// SetFilter installs the widget's active filter; nil clears it.
func (s *Sim) SetFilter(elementID string, filter FilterFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	w.filter = filter
	return nil
}

// SetSort installs the widget's active sort order; nil clears it.
func (s *Sim) SetSort(elementID string, less LessFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.widgetLocked(elementID)
	if err != nil {
		return err
	}
	w.less = less
	return nil
}

// Rows returns a snapshot of the widget's committed row data.
func (s *Sim) Rows(elementID string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.widgets[elementID]
	if w == nil {
		return nil
	}
	return copyRows(w.rows)
}

// Classes returns the class tags last pushed for the widget.
func (s *Sim) Classes(elementID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.widgets[elementID]
	if w == nil {
		return nil
	}
	return append([]string(nil), w.classes...)
}

// LicenseKey returns the license key the widget was created with.
func (s *Sim) LicenseKey(elementID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w := s.widgets[elementID]; w != nil {
		return w.license
	}
	return ""
}

// Options returns the options last pushed for the widget.
func (s *Sim) Options(elementID string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w := s.widgets[elementID]; w != nil {
		return w.options
	}
	return nil
}

// WidgetCount reports how many widgets have been rendered.
func (s *Sim) WidgetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.widgets)
}

type errRowMissing string

func (e errRowMissing) Error() string {
	return "clientsim: no row node with id " + string(e)
}
