package panel

import (
	"image"

	"epdpanel/internal/render"
)

// Split is a container that divides its content region into a cols×rows
// grid of equal cells, one child per cell in row-major order. Children are
// always sized by the container; a nil child leaves its cell empty.
type Split struct {
	Frame
	cols, rows int
	children   []Panel
}

// NewHorizontal places two children side by side.
func NewHorizontal(w, h int, s Settings, debug bool, children ...Panel) *Split {
	return newSplit(w, h, s, debug, 2, 1, children)
}

// NewVertical stacks two children.
func NewVertical(w, h int, s Settings, debug bool, children ...Panel) *Split {
	return newSplit(w, h, s, debug, 1, 2, children)
}

// NewFour places four children in quadrants: top-left, top-right,
// bottom-left, bottom-right.
func NewFour(w, h int, s Settings, debug bool, children ...Panel) *Split {
	return newSplit(w, h, s, debug, 2, 2, children)
}

func newSplit(w, h int, s Settings, debug bool, cols, rows int, children []Panel) *Split {
	c := &Split{
		Frame: newFrame(w, h, s, debug, DefaultPadding),
		cols:  cols,
		rows:  rows,
	}
	c.SetChildren(children...)
	return c
}

// Arity is the number of child slots.
func (c *Split) Arity() int {
	return c.cols * c.rows
}

// SetChildren attaches children to the slots in order and sizes them.
// Extra children beyond Arity are ignored.
func (c *Split) SetChildren(children ...Panel) {
	c.children = make([]Panel, c.Arity())
	copy(c.children, children)
	c.layout()
}

// Child returns the panel in slot i, or nil.
func (c *Split) Child(i int) Panel {
	if i < 0 || i >= len(c.children) {
		return nil
	}
	return c.children[i]
}

func (c *Split) SetSize(w, h int) {
	c.Frame.SetSize(w, h)
	c.layout()
}

// ChildSize is the size every child is forced to.
func (c *Split) ChildSize() (int, int) {
	cw, ch := c.cellSize()
	return cw - 2*c.Padding, ch - 2*c.Padding
}

func (c *Split) cellSize() (int, int) {
	return (c.Width - 2*c.Margin) / c.cols, (c.Height - 2*c.Margin) / c.rows
}

// ChildRect is where slot i is pasted.
func (c *Split) ChildRect(i int) image.Rectangle {
	cw, ch := c.cellSize()
	col, row := i%c.cols, i/c.cols
	min := image.Pt(c.Margin+col*cw+c.Padding, c.Margin+row*ch+c.Padding)
	w, h := c.ChildSize()
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(w, h))}
}

func (c *Split) layout() {
	w, h := c.ChildSize()
	for _, child := range c.children {
		if child != nil {
			child.SetSize(w, h)
		}
	}
}

func (c *Split) NeedsRefresh() bool {
	for _, child := range c.children {
		if child != nil && child.NeedsRefresh() {
			return true
		}
	}
	return false
}

func (c *Split) Draw() *image.RGBA {
	return compose(c)
}

func (c *Split) drawContent(img *image.RGBA) *image.RGBA {
	for i, child := range c.children {
		if child == nil {
			continue
		}
		render.Paste(img, child.Draw(), c.ChildRect(i).Min)
	}
	return c.Frame.drawContent(img)
}

// drawBorder adds divider lines between the cells.
func (c *Split) drawBorder(img *image.RGBA) *image.RGBA {
	inner := c.Inner()
	cw, ch := c.cellSize()
	width := float64(c.BorderWidth)
	for col := 1; col < c.cols; col++ {
		x := c.Margin + col*cw
		render.Line(img, image.Pt(x, inner.Min.Y), image.Pt(x, inner.Max.Y), width, c.BorderColor)
	}
	for row := 1; row < c.rows; row++ {
		y := c.Margin + row*ch
		render.Line(img, image.Pt(inner.Min.X, y), image.Pt(inner.Max.X, y), width, c.BorderColor)
	}
	return c.Frame.drawBorder(img)
}

func (c *Split) drawDebug(img *image.RGBA) *image.RGBA {
	for i := range c.children {
		render.StrokeRect(img, c.ChildRect(i), 2, debugColor)
	}
	return c.Frame.drawDebug(img)
}
