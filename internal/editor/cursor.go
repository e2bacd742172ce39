package editor

// Cursor tracks the selected and the editing block.
// A non-empty editing id always equals the selected id.
type Cursor struct {
	selected string
	editing  string
}

func (c *Cursor) Selected() string { return c.selected }
func (c *Cursor) Editing() string  { return c.editing }

// Select sets the selection and leaves edit mode. An empty id clears both.
func (c *Cursor) Select(id string) {
	c.selected = id
	c.editing = ""
}

func (c *Cursor) StartEditing(id string) {
	c.selected = id
	c.editing = id
}

func (c *Cursor) StopEditing() {
	c.editing = ""
}

func (c *Cursor) Clear() {
	c.selected = ""
	c.editing = ""
}

// Forget clears the cursor if it points at id. It reports whether anything
// changed.
func (c *Cursor) Forget(id string) bool {
	if id == "" || (c.selected != id && c.editing != id) {
		return false
	}
	c.Clear()
	return true
}
