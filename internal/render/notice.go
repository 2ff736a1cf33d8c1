package render

// WithNotice returns the frame with a banner carrying text laid over the top
// of the divider. An empty text returns the frame unchanged.
func (r Renderer) WithNotice(f Frame, text string) Frame {
	if text == "" {
		return f
	}
	l := r.layout().scaled(f.Bounds)
	cx := f.Bounds.CenterX()
	cy := (float64(f.Bounds.Height) - float64(r.insets.ChinHeight)) / 2

	w := r.measure(text, l.NoticeSize)
	pad := l.NoticeSize / 2

	cmds := make([]Command, 0, len(f.Commands)+2)
	cmds = append(cmds, f.Commands...)
	cmds = append(cmds,
		Rect{
			MinX:  cx - w/2 - pad,
			MinY:  cy - l.NoticeSize - pad,
			MaxX:  cx + w/2 + pad,
			MaxY:  cy + pad,
			Color: Black,
		},
		Text{
			Text:      text,
			X:         cx - w/2,
			Y:         cy,
			Size:      l.NoticeSize,
			Color:     r.Theme.Text,
			AntiAlias: true,
			Role:      RoleNotice,
		},
	)
	f.Commands = cmds
	return f
}
